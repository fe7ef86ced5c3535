package questionnaire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Questionnaire struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Question struct {
	ID              int64     `json:"id"`
	QuestionnaireID int64     `json:"questionnaire_id"`
	Text            string    `json:"text"`
	Options         Options   `json:"options"`
	CreatedAt       time.Time `json:"created_at"`
}

// Usable reports whether the question can be answered.
func (q *Question) Usable() bool {
	for _, o := range q.Options {
		if strings.TrimSpace(o.Text) != "" {
			return true
		}
	}
	return false
}

// Option is one answer choice. Values may repeat and need not match the
// option's position.
type Option struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type Options []Option

// storedOption accepts the object shapes found in stored data, including the
// Spanish keys written by the first version of the clinic app.
type storedOption struct {
	Text  *string `json:"text"`
	Texto *string `json:"texto"`
	Value *int    `json:"value"`
	Valor *int    `json:"valor"`
}

// ParseOptions decodes a JSON option list. Plain string entries get their
// position as value; object entries without a value do too.
func ParseOptions(raw []byte) (Options, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Options{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("options must be a JSON array: %w", err)
	}

	opts := make(Options, 0, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			opts = append(opts, Option{Text: s, Value: i})
			continue
		}

		var so storedOption
		if err := json.Unmarshal(item, &so); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		o := Option{Value: i}
		switch {
		case so.Text != nil:
			o.Text = *so.Text
		case so.Texto != nil:
			o.Text = *so.Texto
		}
		switch {
		case so.Value != nil:
			o.Value = *so.Value
		case so.Valor != nil:
			o.Value = *so.Valor
		}
		opts = append(opts, o)
	}
	return opts, nil
}

// UnmarshalJSON lets request bodies use any of the shapes ParseOptions accepts.
func (o *Options) UnmarshalJSON(b []byte) error {
	parsed, err := ParseOptions(b)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Compact trims option texts and drops the blank ones.
func (o Options) Compact() Options {
	out := make(Options, 0, len(o))
	for _, opt := range o {
		opt.Text = strings.TrimSpace(opt.Text)
		if opt.Text == "" {
			continue
		}
		out = append(out, opt)
	}
	return out
}

func (o Options) Equal(other Options) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}
