package rates

import (
	"context"
	"errors"
	"testing"

	"kudi/internal/core"
)

func TestStaticConvert(t *testing.T) {
	s := Static{
		Base: "GHS",
		Rates: map[string]float64{
			"USD": 0.08, // 1 GHS = 0.08 USD, so 1 USD = 12.50 GHS
			"EUR": 0.05,
			"XQZ": 1, // not an ISO code; exercises the currency check
		},
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		cents   int64
		from    string
		want    int64
		wantErr error
	}{
		{"base currency passes through", 1234, "GHS", 1234, nil},
		{"usd to base", 800, "USD", 10000, nil}, // $8.00 / 0.08 = GHS 100.00
		{"eur to base", 100, "EUR", 2000, nil},  // EUR 1.00 / 0.05 = GHS 20.00
		{"unknown currency", 100, "JPY", 0, ErrUnknownCurrency},
		{"garbage code", 100, "XQZ", 0, core.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Convert(ctx, core.Money{Cents: tt.cents}, tt.from)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("Convert() = %d cents, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestStaticConvertRounds(t *testing.T) {
	s := Static{Base: "GHS", Rates: map[string]float64{"USD": 3}}
	got, err := s.Convert(context.Background(), core.Money{Cents: 100}, "USD")
	if err != nil {
		t.Fatal(err)
	}
	// 1.00 / 3 = 0.3333... rounds to 0.33
	if got.Cents != 33 {
		t.Errorf("Convert() = %d cents, want 33", got.Cents)
	}
}

func TestUnavailableConvert(t *testing.T) {
	_, err := Unavailable{}.Convert(context.Background(), core.Money{Cents: 100}, "USD")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Convert() error = %v, want ErrUnavailable", err)
	}
}
