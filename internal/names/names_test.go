package names

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pgsync/pgsync/internal/descriptor"
)

func TestSynthesizePreservesValidNames(t *testing.T) {
	tests := []string{
		"orders_pkey",
		"my_custom_constraint",
		"_leading_underscore",
		"Fancy_Name",
	}

	for _, name := range tests {
		got := Synthesize(name, descriptor.ConstraintUnique, "orders", []string{"id"})
		if got != name {
			t.Errorf("Synthesize(%q) = %q, want the original preserved", name, got)
		}
	}
}

func TestSynthesizeConventions(t *testing.T) {
	tests := []struct {
		name     string
		original string
		kind     descriptor.ConstraintKind
		table    string
		columns  []string
		want     string
	}{
		{
			name:     "primary key",
			original: "",
			kind:     descriptor.ConstraintPrimaryKey,
			table:    "orders",
			columns:  []string{"id"},
			want:     "orders_pkey",
		},
		{
			name:     "unique single column",
			original: "",
			kind:     descriptor.ConstraintUnique,
			table:    "users",
			columns:  []string{"email"},
			want:     "users_email_key",
		},
		{
			name:     "unique multi column lowercased",
			original: "",
			kind:     descriptor.ConstraintUnique,
			table:    "audit",
			columns:  []string{"Actor", "Action"},
			want:     "audit_actor_action_key",
		},
		{
			name:     "foreign key",
			original: "",
			kind:     descriptor.ConstraintForeignKey,
			table:    "orders",
			columns:  []string{"customer_id"},
			want:     "orders_customer_id_fkey",
		},
		{
			name:     "fallback kind",
			original: "",
			kind:     descriptor.ConstraintNotNull,
			table:    "orders",
			columns:  []string{"total"},
			want:     "orders_total_not_null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Synthesize(tt.original, tt.kind, tt.table, tt.columns); got != tt.want {
				t.Errorf("Synthesize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeCheckEmbedsTimestamp(t *testing.T) {
	got := Synthesize("1bad", descriptor.ConstraintCheck, "orders", []string{"total"})
	pattern := regexp.MustCompile(`^orders_total_check_\d{14}$`)
	if !pattern.MatchString(got) {
		t.Errorf("Synthesize(check) = %q, want match for %s", got, pattern)
	}
}

func TestSynthesizeRejectsInvalidOriginals(t *testing.T) {
	tests := []struct {
		name     string
		original string
	}{
		{"empty", ""},
		{"leading digit", "1bad"},
		{"too long", strings.Repeat("x", MaxIdentifierLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.original, descriptor.ConstraintPrimaryKey, "orders", []string{"id"})
			if got != "orders_pkey" {
				t.Errorf("Synthesize(%q) = %q, want convention name orders_pkey", tt.original, got)
			}
		})
	}
}

func TestBackupNames(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

	if got, want := Backup("users", at), "users_backup_20240309143005"; got != want {
		t.Errorf("Backup() = %q, want %q", got, want)
	}
}

func TestClampRespectsIdentifierLimit(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := Backup(long, time.Now())
	if len(got) != MaxIdentifierLength {
		t.Errorf("Backup of oversized name has length %d, want %d", len(got), MaxIdentifierLength)
	}
}
