package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestParseDurationEnv(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10s", 10 * time.Second, false},
		{"60", time.Minute, false},
		{` "5m" `, 5 * time.Minute, false},
		{"'24h'", 24 * time.Hour, false},
		{"", 0, true},
		{"soon", 0, true},
		{"-5", 0, true},
		{"-1m", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDurationEnv(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDurationEnv(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(dup) {
		t.Fatal("wrapped 23505 not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) || IsUniqueViolation(errors.New("boom")) {
		t.Fatal("false positive")
	}
}
