package rulegen

import (
	"strings"
	"testing"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(log)
}

func TestParseRequirements(t *testing.T) {
	cases := []struct {
		prompt string
		want   []string
	}{
		{"email must not be null", []string{"is_not_null_and_not_empty", "matches_regex"}},
		{"amount should be positive", []string{"is_greater_than"}},
		{"order ids must be unique", []string{"is_unique"}},
		{"dates must not be in the future", []string{"is_not_in_future"}},
		{"values between 0 and 100", []string{"is_in_range"}},
		{"status from allowed values", []string{"is_in_list"}},
		{"name max length 50 characters", []string{"has_length"}},
		{"nothing recognizable here", nil},
	}

	for _, tc := range cases {
		checks := parseRequirements(tc.prompt)
		got := make([]string, 0, len(checks))
		for _, c := range checks {
			got = append(got, c.Function)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("parseRequirements(%q): got %v want %v", tc.prompt, got, tc.want)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("parseRequirements(%q): got %v want %v", tc.prompt, got, tc.want)
			}
		}
	}
}

func TestExtractColumns(t *testing.T) {
	cols := extractColumns(`check that "customer_id" and order_total are set, email is valid`)
	want := map[string]bool{"customer_id": true, "order_total": true, "email": true}
	for name := range want {
		found := false
		for _, c := range cols {
			if c == name {
				found = true
			}
		}
		if !found {
			t.Fatalf("extractColumns: missing %q in %v", name, cols)
		}
	}
}

func TestGenerateEmailNotNullAmountPositive(t *testing.T) {
	g := testGenerator(t)

	sample := &types.TableSample{
		Columns:  []string{"id", "email", "amount", "created_at"},
		RowCount: 3,
	}
	result := g.Generate("main.sales.customers", "email not null, amount positive", sample)

	var notNullOnEmail, greaterThanOnAmount bool
	for _, rule := range result.Rules {
		col := rule.Column()
		if strings.HasPrefix(rule.Check.Function, "is_not_null") && strings.Contains(col, "email") {
			notNullOnEmail = true
		}
		if rule.Check.Function == "is_greater_than" && strings.Contains(col, "amount") {
			greaterThanOnAmount = true
		}
	}
	if !notNullOnEmail {
		t.Fatalf("expected an is_not_null-family check on email, got %+v", result.Rules)
	}
	if !greaterThanOnAmount {
		t.Fatalf("expected an is_greater_than check on amount, got %+v", result.Rules)
	}

	if result.Summary == "" {
		t.Fatal("expected non-empty summary")
	}
	if result.Metadata["row_count"] != 3 {
		t.Fatalf("metadata row_count: got %v", result.Metadata["row_count"])
	}
	if len(result.ColumnProfiles) != 4 {
		t.Fatalf("expected 4 column profiles, got %d", len(result.ColumnProfiles))
	}
}

func TestGenerateMatchesSampleColumns(t *testing.T) {
	g := testGenerator(t)

	// "email" should bind to the real email_address column.
	sample := &types.TableSample{Columns: []string{"pk", "email_address"}}
	result := g.Generate("main.crm.contacts", "email required", sample)

	for _, rule := range result.Rules {
		if rule.Column() != "email_address" {
			t.Fatalf("expected rules bound to email_address, got %q", rule.Column())
		}
	}
}

func TestGenerateWithoutSampleUsesPlaceholders(t *testing.T) {
	g := testGenerator(t)

	result := g.Generate("main.default.t", "everything must be mandatory", nil)
	if len(result.Rules) == 0 {
		t.Fatal("expected at least one rule")
	}
	if got := result.Rules[0].Check.Function; got != "is_not_null_and_not_empty" {
		t.Fatalf("expected is_not_null_and_not_empty, got %q", got)
	}
}

func TestGenerateUnrecognizedPromptFallsBackToTemplate(t *testing.T) {
	g := testGenerator(t)

	result := g.Generate("main.default.t", "do something sensible", nil)
	if len(result.Rules) != 1 {
		t.Fatalf("expected a single template rule, got %d", len(result.Rules))
	}
	if result.Rules[0].Criticality != types.CriticalityWarn {
		t.Fatalf("expected warn criticality, got %q", result.Rules[0].Criticality)
	}
}

func TestBuildRuleArguments(t *testing.T) {
	r := buildRule("is_greater_than", "amount")
	if r.Check.Arguments["limit"] != 0 {
		t.Fatalf("is_greater_than limit: got %v", r.Check.Arguments["limit"])
	}

	r = buildRule("matches_regex", "phone_number")
	if re, _ := r.Check.Arguments["regex"].(string); !strings.Contains(re, "[0-9]{10,15}") {
		t.Fatalf("phone regex: got %v", r.Check.Arguments["regex"])
	}

	r = buildRule("matches_regex", "email")
	if re, _ := r.Check.Arguments["regex"].(string); !strings.Contains(re, "@") {
		t.Fatalf("email regex: got %v", r.Check.Arguments["regex"])
	}

	r = buildRule("has_length", "name")
	if r.Check.Arguments["max_length"] != 255 {
		t.Fatalf("has_length max: got %v", r.Check.Arguments["max_length"])
	}
}
