package sqlfmt

import (
	"testing"

	"github.com/pgsync/pgsync/internal/descriptor"
)

func intPtr(v int) *int { return &v }

func TestFormatType(t *testing.T) {
	tests := []struct {
		name string
		col  *descriptor.Column
		want string
	}{
		{
			name: "varchar default length elided",
			col:  &descriptor.Column{DataType: "character varying", MaxLength: intPtr(255)},
			want: "character varying",
		},
		{
			name: "varchar explicit length kept",
			col:  &descriptor.Column{DataType: "character varying", MaxLength: intPtr(100)},
			want: "character varying(100)",
		},
		{
			name: "varchar no length",
			col:  &descriptor.Column{DataType: "character varying"},
			want: "character varying",
		},
		{
			name: "char default length elided",
			col:  &descriptor.Column{DataType: "character", MaxLength: intPtr(1)},
			want: "character",
		},
		{
			name: "char explicit length",
			col:  &descriptor.Column{DataType: "character", MaxLength: intPtr(2)},
			want: "character(2)",
		},
		{
			name: "numeric precision and scale always render",
			col:  &descriptor.Column{DataType: "numeric", Precision: intPtr(12), Scale: intPtr(2)},
			want: "numeric(12,2)",
		},
		{
			name: "numeric precision only",
			col:  &descriptor.Column{DataType: "numeric", Precision: intPtr(8)},
			want: "numeric(8)",
		},
		{
			name: "numeric unconstrained",
			col:  &descriptor.Column{DataType: "numeric"},
			want: "numeric",
		},
		{
			name: "timestamp default precision elided",
			col:  &descriptor.Column{DataType: "timestamp without time zone", Precision: intPtr(6)},
			want: "timestamp without time zone",
		},
		{
			name: "timestamp explicit precision placed before zone",
			col:  &descriptor.Column{DataType: "timestamp without time zone", Precision: intPtr(3)},
			want: "timestamp(3) without time zone",
		},
		{
			name: "integer untouched",
			col:  &descriptor.Column{DataType: "integer"},
			want: "integer",
		},
		{
			name: "unlisted type with length renders",
			col:  &descriptor.Column{DataType: "bit varying", MaxLength: intPtr(16)},
			want: "bit varying(16)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatType(tt.col); got != tt.want {
				t.Errorf("FormatType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int4", "integer"},
		{"int8", "bigint"},
		{"pg_catalog.int2", "smallint"},
		{"varchar", "character varying"},
		{"bpchar", "character"},
		{"timestamptz", "timestamp with time zone"},
		{"timestamp", "timestamp without time zone"},
		{"float8", "double precision"},
		{"bool", "boolean"},
		{"numeric", "numeric"},
		{"text", "text"},
		{"jsonb", "jsonb"},
		{"pg_catalog.interval", "interval"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalType(tt.in); got != tt.want {
				t.Errorf("CanonicalType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
