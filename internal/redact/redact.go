// Package redact implements the redact command's per-column value
// substitution strategies: deterministic hashing, masking, constant
// replacement, shuffling, and fake-data generation.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

// Strategy names one redaction method applicable to a column.
type Strategy string

const (
	// StrategyHash replaces the value with the first 32 hex characters of
	// the SHA-256 digest of (salt + original text), so repeated runs over the same
	// salt and input reproduce identical output — needed to keep FK
	// relationships intact when the referenced column is also redacted
	// with the same strategy and salt.
	StrategyHash Strategy = "hash"
	// StrategyMask keeps the first and last visible character and
	// replaces the rest with '*'.
	StrategyMask Strategy = "mask"
	// StrategyConstant replaces every value with a fixed string.
	StrategyConstant Strategy = "constant"
	// StrategyShuffle permutes values within the column across the batch
	// passed to Shuffle; unlike the other strategies it cannot act on one
	// value at a time.
	StrategyShuffle Strategy = "shuffle"
	// StrategyFake replaces the value with gofakeit-generated data shaped
	// by Faker (email, name, phone, address, ...).
	StrategyFake Strategy = "fake"
)

// ColumnRule configures one column's redaction.
type ColumnRule struct {
	Table    string
	Column   string
	Strategy Strategy
	Constant string // for StrategyConstant
	Faker    string // for StrategyFake: "email", "name", "phone", "address", "uuid"
}

// Redactor applies rules to Values by table+column.
type Redactor struct {
	salt  string
	rules map[string]ColumnRule
}

// New builds a Redactor. salt seeds StrategyHash so the same logical
// dataset redacted twice with the same salt produces the same pseudonyms,
// while two different salts never collide.
func New(salt string, rules []ColumnRule) *Redactor {
	m := make(map[string]ColumnRule, len(rules))
	for _, r := range rules {
		m[key(r.Table, r.Column)] = r
	}
	return &Redactor{salt: salt, rules: m}
}

func key(table, column string) string {
	return strings.ToLower(table) + "." + strings.ToLower(column)
}

// RuleFor returns the rule for table.column, if one was configured.
func (r *Redactor) RuleFor(table, column string) (ColumnRule, bool) {
	rule, ok := r.rules[key(table, column)]
	return rule, ok
}

// Apply redacts v according to rule, leaving NULLs untouched (spec.md's
// redact command never invents a non-NULL value for a NULL cell).
func (r *Redactor) Apply(v row.Value, rule ColumnRule) row.Value {
	if v.IsNull() {
		return v
	}
	switch rule.Strategy {
	case StrategyHash:
		return row.Value{Kind: row.String, Text: r.hash(v.Text)}
	case StrategyMask:
		return row.Value{Kind: row.String, Text: mask(v.Text)}
	case StrategyConstant:
		return row.Value{Kind: row.String, Text: rule.Constant}
	case StrategyFake:
		return row.Value{Kind: row.String, Text: r.fake(rule.Faker, v.Text)}
	default:
		return v
	}
}

func (r *Redactor) hash(s string) string {
	sum := sha256.Sum256([]byte(r.salt + s))
	return hex.EncodeToString(sum[:])[:32]
}

func mask(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	out := make([]rune, len(runes))
	out[0] = runes[0]
	out[len(runes)-1] = runes[len(runes)-1]
	for i := 1; i < len(runes)-1; i++ {
		out[i] = '*'
	}
	return string(out)
}

// fake produces deterministic-per-input fake data by seeding a local
// gofakeit Faker from the hash of the original value, so the same source
// value always maps to the same fake one within a run (preserving any
// referential pattern an FK-adjacent column might rely on) without ever
// leaking the original.
func (r *Redactor) fake(kind, original string) string {
	sum := sha256.Sum256([]byte(r.salt + original))
	seed := int64(0)
	for i := 0; i < 8; i++ {
		seed = seed<<8 | int64(sum[i])
	}
	faker := gofakeit.NewFaker(rand.NewSource(seed), true)
	switch kind {
	case "email":
		return faker.Email()
	case "phone":
		return faker.Phone()
	case "address":
		return faker.Address().Address
	case "uuid":
		return faker.UUID()
	case "name":
		return faker.Name()
	default:
		return faker.Word()
	}
}

// Shuffle permutes vals in place using a Fisher-Yates shuffle seeded from
// salt, used for StrategyShuffle columns where the whole column's value
// set is collected before being redistributed across rows.
func Shuffle(vals []row.Value, salt string) {
	sum := sha256.Sum256([]byte(salt))
	seed := int64(0)
	for i := 0; i < 8; i++ {
		seed = seed<<8 | int64(sum[i])
	}
	rnd := rand.New(rand.NewSource(seed))
	for i := len(vals) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		vals[i], vals[j] = vals[j], vals[i]
	}
}

// ValidateRule reports an error if rule is structurally incomplete for its
// Strategy (e.g. StrategyConstant with no Constant set).
func ValidateRule(rule ColumnRule) error {
	switch rule.Strategy {
	case StrategyConstant:
		if rule.Constant == "" {
			return fmt.Errorf("column %s.%s: constant strategy requires a non-empty constant", rule.Table, rule.Column)
		}
	case StrategyFake:
		if rule.Faker == "" {
			return fmt.Errorf("column %s.%s: fake strategy requires a faker kind", rule.Table, rule.Column)
		}
	}
	return nil
}
