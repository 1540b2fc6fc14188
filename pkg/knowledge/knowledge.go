package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/concierge/pkg/provider"
	"github.com/theapemachine/concierge/pkg/vector"
)

/*
Entry is one question/answer pair in the knowledge base. The indexed
text is the pair joined, so a query can match on either side.
*/
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// Text returns the passage that gets embedded and indexed.
func (entry Entry) Text() string {
	return fmt.Sprintf("Q: %s\nA: %s", entry.Question, entry.Answer)
}

/*
Default returns the built-in customer-service FAQ. It covers the
questions support actually gets, and doubles as a working demo corpus
when no knowledge file is configured.
*/
func Default() []Entry {
	return []Entry{
		{
			Question: "如何申请退货？",
			Answer:   "收到商品7天内可申请无理由退货，商品需保持完好。在“我的订单”中提交退货申请，审核通过后按提示寄回即可。",
			Category: "returns",
		},
		{
			Question: "退款多久到账？",
			Answer:   "我们收到退货后1-3个工作日内原路退回，银行卡退款到账可能需要3-7个工作日。",
			Category: "returns",
		},
		{
			Question: "配送范围和运费是怎样的？",
			Answer:   "全国大部分地区均可配送，单笔订单满99元免运费，偏远地区加收10元运费。",
			Category: "shipping",
		},
		{
			Question: "下单后多久发货？多久能收到？",
			Answer:   "付款后48小时内发货，一般3-5天送达，偏远地区5-7天。",
			Category: "shipping",
		},
		{
			Question: "如何查询订单物流？",
			Answer:   "在“我的订单”页面点击“查看物流”即可查询，也可以把运单号发给客服帮您查询。",
			Category: "order",
		},
		{
			Question: "可以开发票吗？",
			Answer:   "支持电子普通发票和增值税专用发票，下单时填写抬头即可，漏开可联系客服补开。",
			Category: "invoice",
		},
		{
			Question: "商品保修政策是什么？",
			Answer:   "电子产品自签收之日起享受一年保修，非人为损坏免费维修，人为损坏可提供有偿维修。",
			Category: "warranty",
		},
		{
			Question: "如何联系人工客服？",
			Answer:   "工作日9:00-21:00可通过在线客服联系我们，也可拨打热线400-123-4567。",
			Category: "contact",
		},
	}
}

/*
Load reads a JSON array of entries from path. A missing file is not an
error: the built-in FAQ is returned instead so the agent always has
something to answer from.
*/
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)

	if os.IsNotExist(err) {
		log.Info("knowledge file not found, using built-in FAQ", "path", path)
		return Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file %s: %w", path, err)
	}

	return entries, nil
}

// Save writes entries to path as indented JSON.
func Save(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode knowledge entries: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

/*
Builder embeds knowledge entries into index entries. IDs are ordinals
so insertion order, which the index uses to break score ties, follows
the order entries appear in the source.
*/
type Builder struct {
	embedder provider.Embedder
}

func NewBuilder(embedder provider.Embedder) *Builder {
	return &Builder{embedder: embedder}
}

func (b *Builder) Build(ctx context.Context, entries []Entry) ([]vector.Entry, error) {
	if len(entries) == 0 {
		return []vector.Entry{}, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Text()
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	out := make([]vector.Entry, len(entries))

	for i, entry := range entries {
		out[i] = vector.Entry{
			ID:        fmt.Sprintf("kb-%d", i),
			Text:      texts[i],
			Embedding: embeddings[i],
			Metadata: map[string]string{
				"question": entry.Question,
				"answer":   entry.Answer,
				"category": entry.Category,
			},
		}
	}

	return out, nil
}
