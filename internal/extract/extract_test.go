package extract

import (
	"testing"

	"cargoquote-backend/internal/models"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
		ok   bool
	}{
		{name: "grouped digits", text: "5 000 000", want: 5_000_000, ok: true},
		{name: "bare digits", text: "1200000", want: 1_200_000, ok: true},
		{name: "millions marker", text: "5 млн", want: 5_000_000, ok: true},
		{name: "millions word", text: "страховая сумма 12 миллионов", want: 12_000_000, ok: true},
		{name: "millions inside sentence", text: "примерно 2 млн рублей", want: 2_000_000, ok: true},
		{name: "too few digits", text: "12345", ok: false},
		{name: "no digits", text: "не знаю", ok: false},
		{name: "empty", text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Money(tt.text)
			if ok != tt.ok {
				t.Fatalf("Money(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Money(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCondition(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{text: "NEW", want: models.ConditionNew, ok: true},
		{text: "new", want: models.ConditionNew, ok: true},
		{text: "USED", want: models.ConditionUsed, ok: true},
		{text: "новый", want: models.ConditionNew, ok: true},
		{text: "б/у", want: models.ConditionUsed, ok: true},
		{text: "бу", want: models.ConditionUsed, ok: true},
		{text: "подержанный станок", want: models.ConditionUsed, ok: true},
		{text: "металл", ok: false},
		{text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Condition(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Condition(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFranchise(t *testing.T) {
	tests := []struct {
		text string
		want int64
		ok   bool
	}{
		{text: "20000", want: 20000, ok: true},
		{text: "20 000", want: 20000, ok: true},
		{text: "20к", want: 20000, ok: true},
		{text: "50k", want: 50000, ok: true},
		{text: "франшиза 20", want: 20000, ok: true},
		{text: "фр 50", want: 50000, ok: true},
		{text: "20", ok: false},
		{text: "франшиза", ok: false},
		{text: "30000", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Franchise(tt.text)
			if ok != tt.ok {
				t.Fatalf("Franchise(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Franchise(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		text  string
		value bool
		ok    bool
	}{
		{text: "да", value: true, ok: true},
		{text: "Да", value: true, ok: true},
		{text: "верно", value: true, ok: true},
		{text: "ок", value: true, ok: true},
		{text: "yes", value: true, ok: true},
		{text: "нет", value: false, ok: true},
		{text: "no", value: false, ok: true},
		{text: "может быть", ok: false},
		{text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			value, ok := YesNo(tt.text)
			if ok != tt.ok || (ok && value != tt.value) {
				t.Errorf("YesNo(%q) = (%v, %v), want (%v, %v)", tt.text, value, ok, tt.value, tt.ok)
			}
		})
	}
}

func TestReefer(t *testing.T) {
	tests := []struct {
		text  string
		value bool
		ok    bool
	}{
		{text: "без рефрижератора", value: false, ok: true},
		{text: "не нужен реф", value: false, ok: true},
		{text: "рефрижератор", value: true, ok: true},
		{text: "нужен холод", value: true, ok: true},
		{text: "да", value: true, ok: true},
		{text: "нет", value: false, ok: true},
		{text: "не знаю", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			value, ok := Reefer(tt.text)
			if ok != tt.ok || (ok && value != tt.value) {
				t.Errorf("Reefer(%q) = (%v, %v), want (%v, %v)", tt.text, value, ok, tt.value, tt.ok)
			}
		})
	}
}

func TestRouteZone(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{text: "РФ", want: models.RouteZoneRF, ok: true},
		{text: "рф", want: models.RouteZoneRF, ok: true},
		{text: "СНГ-РФ", want: models.RouteZoneCIS, ok: true},
		{text: "снг", want: models.RouteZoneCIS, ok: true},
		{text: "весь мир", want: models.RouteZoneWorld, ok: true},
		{text: "ВЕСЬ МИР-РФ", want: models.RouteZoneWorld, ok: true},
		{text: "по России", want: models.RouteZoneRF, ok: true},
		{text: "луна", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := RouteZone(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("RouteZone(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMenuChoice(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{text: "CARGO003", want: "CARGO003", ok: true},
		{text: "cargo016", want: "CARGO016", ok: true},
		{text: "3", want: "CARGO003", ok: true},
		{text: "1", want: "CARGO001", ok: true},
		{text: "16", want: "CARGO016", ok: true},
		{text: "0", ok: false},
		{text: "17", ok: false},
		{text: "CARGO999", ok: false},
		{text: "мебель", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := MenuChoice(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("MenuChoice(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}
