package importer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/validator"
)

// Limits cotas aplicadas a cada línea importada.
type Limits struct {
	MaxNameLength int
	MaxQuantity   decimal.Decimal
	MaxAmount     decimal.Decimal // costo y precio
}

// DefaultLimits cotas por defecto (IMPORT_MAX_*).
func DefaultLimits() Limits {
	return Limits{
		MaxNameLength: 100,
		MaxQuantity:   decimal.NewFromInt(1_000_000),
		MaxAmount:     decimal.NewFromInt(1_000_000_000),
	}
}

// Line línea saneada y tipada, lista para el pipeline de importación.
type Line struct {
	Row           int             `json:"-"`
	ProductName   string          `json:"productName" validate:"required,usable_name"`
	CategoryName  string          `json:"categoryName"`
	SupplierName  string          `json:"supplierName" validate:"required_if=IsConsignment true"`
	Cost          decimal.Decimal `json:"cost" validate:"gte=0"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity      decimal.Decimal `json:"quantity" validate:"gte=0"`
	IsConsignment bool            `json:"isConsignment"`
}

// DuplicateKey clave compuesta (producto, proveedor-o-vacío) que debe ser única en el lote.
func (l Line) DuplicateKey() string {
	return l.ProductName + "\x00" + l.SupplierName
}

var errEmpty = errors.New("vacío")

// SanitizeLine normaliza y valida una línea cruda. row es 1-based. Devuelve los motivos de rechazo
// (vacío si la línea es válida).
func SanitizeLine(row int, in dto.ImportLineRequest, limits Limits) (Line, []string) {
	var reasons []string
	out := Line{
		Row:          row,
		ProductName:  SanitizeText(in.ProductName.String(), limits.MaxNameLength),
		CategoryName: SanitizeText(in.CategoryName.String(), limits.MaxNameLength),
		SupplierName: SanitizeText(in.SupplierName.String(), limits.MaxNameLength),
	}

	consignment, err := ParseFlag(in.IsConsignment.String())
	if err != nil {
		reasons = append(reasons, "isConsignment: "+err.Error())
	}
	out.IsConsignment = consignment

	parse := func(field string, raw dto.RawValue, required bool, limit decimal.Decimal) decimal.Decimal {
		v, err := ParseAmount(raw.String())
		switch {
		case errors.Is(err, errEmpty) && required:
			reasons = append(reasons, field+": requerido")
			return decimal.Zero
		case errors.Is(err, errEmpty):
			return decimal.Zero
		case err != nil:
			reasons = append(reasons, fmt.Sprintf("%s: %v", field, err))
			return decimal.Zero
		}
		if v.GreaterThan(limit) {
			reasons = append(reasons, fmt.Sprintf("%s: excede el máximo permitido (%s)", field, limit))
		}
		return v
	}
	out.Cost = parse("cost", in.Cost, true, limits.MaxAmount)
	out.Price = parse("price", in.Price, false, limits.MaxAmount)
	out.Quantity = parse("quantity", in.Quantity, true, limits.MaxQuantity)

	reasons = append(reasons, validator.Messages(validator.ValidateStruct(out))...)
	if out.SupplierName != "" && !usable(out.SupplierName) {
		reasons = append(reasons, "supplierName: debe contener al menos una letra o un dígito")
	}
	return out, reasons
}

// SanitizeText normaliza a NFC, elimina caracteres de control, colapsa espacios y recorta a maxLen runas.
func SanitizeText(s string, maxLen int) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar, r == '\u200b', r == '\ufeff':
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return s
}

// ParseAmount interpreta un número de planilla: admite coma decimal ("12,5"), separador de miles
// ("1.234,50" o "1,234.50"), espacios y símbolo de moneda. Rechaza valores no finitos.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, errEmpty
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("número inválido %q", raw)
	}
	return v, nil
}

// ParseFlag interpreta un booleano de planilla ("si", "sí", "x", "1", "true", ...). Vacío es false.
func ParseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "si", "sí", "yes", "x", "verdadero":
		return true, nil
	case "", "false", "0", "no", "falso":
		return false, nil
	}
	return false, fmt.Errorf("valor booleano inválido %q", raw)
}

func usable(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
