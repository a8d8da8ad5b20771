package models

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================
// Parameter
// ============================================================

// Parameter хранит значение поля строкой, чтобы поле могло быть пустым.
type Parameter struct {
	Value string `json:"value"`
}

// NewParam возвращает указатель на параметр с заданным значением.
func NewParam(value string) *Parameter {
	return &Parameter{Value: value}
}

// Float разбирает значение как число. Нечисловое значение считается отсутствующим.
func (p Parameter) Float() (float64, bool) {
	return ParseNumber(p.Value)
}

// IsBlank сообщает, что значение пустое.
func (p Parameter) IsBlank() bool {
	return p.Value == ""
}

func (p *Parameter) clone() *Parameter {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// valueOf безопасно читает необязательный параметр.
func valueOf(p *Parameter) string {
	if p == nil {
		return ""
	}
	return p.Value
}

// ============================================================
// Number parsing & formatting
// ============================================================

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber читает числовой префикс строки: "12.5abc" -> 12.5, "abc" -> отсутствует.
// Бесконечности и переполнение считаются отсутствующим значением.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// FormatFixed форматирует число с фиксированным числом знаков, округляя
// точное двоичное значение половиной вверх по модулю.
func FormatFixed(x float64, digits int) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	if math.IsInf(x, 1) {
		return "Infinity"
	}
	if math.IsInf(x, -1) {
		return "-Infinity"
	}

	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	exact := new(big.Float).SetPrec(2048).SetFloat64(x).Text('f', 1100)
	intPart, frac, _ := strings.Cut(exact, ".")
	for len(frac) < digits+1 {
		frac += "0"
	}

	kept := intPart + frac[:digits]
	roundUp := frac[digits] >= '5'

	n := new(big.Int)
	n.SetString(kept, 10)
	if roundUp {
		n.Add(n, big.NewInt(1))
	}

	s := n.String()
	if digits == 0 {
		return sign + s
	}
	for len(s) <= digits {
		s = "0" + s
	}
	return sign + s[:len(s)-digits] + "." + s[len(s)-digits:]
}
