// Package spreadsheet convierte planillas de inventario (.xlsx, .csv) en líneas crudas de importación.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
)

// columna de destino en dto.ImportLineRequest
type column int

const (
	colIgnored column = iota
	colProduct
	colCategory
	colSupplier
	colCost
	colPrice
	colQuantity
	colConsignment
)

// aliases de encabezado ya normalizados (minúsculas, sin acentos, sin espacios ni guiones).
var headerAliases = map[string]column{
	"producto":          colProduct,
	"nombre":            colProduct,
	"nombreproducto":    colProduct,
	"nombredelproducto": colProduct,
	"product":           colProduct,
	"productname":       colProduct,
	"categoria":         colCategory,
	"category":          colCategory,
	"categoryname":      colCategory,
	"proveedor":         colSupplier,
	"supplier":          colSupplier,
	"suppliername":      colSupplier,
	"costo":             colCost,
	"costounitario":     colCost,
	"cost":              colCost,
	"precio":            colPrice,
	"precioventa":       colPrice,
	"preciodeventa":     colPrice,
	"price":             colPrice,
	"cantidad":          colQuantity,
	"existencia":        colQuantity,
	"stock":             colQuantity,
	"quantity":          colQuantity,
	"consignacion":      colConsignment,
	"enconsignacion":    colConsignment,
	"consignment":       colConsignment,
	"isconsignment":     colConsignment,
}

// Parse lee la primera hoja de un .xlsx o un .csv (UTF-8 o Windows-1252, separador ';' o ',').
// La primera fila no vacía es el encabezado; las filas vacías se omiten.
func Parse(filename string, r io.Reader) ([]dto.ImportLineRequest, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	case ".csv", ".txt":
		rows, err = readCSV(r)
	default:
		return nil, domain.NewError(domain.ErrValidation, "formato de archivo no soportado (use .xlsx o .csv)", filename)
	}
	if err != nil {
		return nil, err
	}
	return toLines(rows)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Wrap(domain.ErrValidation, "no se pudo abrir la planilla", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewError(domain.ErrValidation, "la planilla no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.Wrap(domain.ErrValidation, "leer hoja "+sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		// Excel en Windows exporta CSV en Windows-1252 (superconjunto práctico de ISO-8859-1).
		if raw, err = charmap.Windows1252.NewDecoder().Bytes(raw); err != nil {
			return nil, domain.Wrap(domain.ErrValidation, "codificación de CSV no reconocida", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = detectDelimiter(raw)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, domain.Wrap(domain.ErrValidation, "CSV mal formado", err)
	}
	return rows, nil
}

func detectDelimiter(raw []byte) rune {
	first, _, _ := bytes.Cut(raw, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeHeader(h string) string {
	s, _, err := transform.String(accentStripper, strings.ToLower(strings.TrimSpace(h)))
	if err != nil {
		s = strings.ToLower(h)
	}
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '-' || r == '.' {
			return -1
		}
		return r
	}, s)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toLines(rows [][]string) ([]dto.ImportLineRequest, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, domain.NewError(domain.ErrValidation, "la planilla está vacía")
	}

	header := rows[start]
	cols := make([]column, len(header))
	found := map[column]bool{}
	for i, h := range header {
		c := headerAliases[normalizeHeader(h)]
		if c != colIgnored && found[c] {
			return nil, domain.NewError(domain.ErrValidation, "columna repetida en el encabezado", h)
		}
		cols[i] = c
		found[c] = true
	}
	if !found[colProduct] {
		return nil, domain.NewError(domain.ErrValidation, "falta la columna de producto en el encabezado",
			fmt.Sprintf("encabezado: %s", strings.Join(header, ", ")))
	}

	var out []dto.ImportLineRequest
	for _, row := range rows[start+1:] {
		if isBlank(row) {
			continue
		}
		var line dto.ImportLineRequest
		for i, cell := range row {
			if i >= len(cols) {
				break
			}
			v := dto.RawValue(cell)
			switch cols[i] {
			case colProduct:
				line.ProductName = v
			case colCategory:
				line.CategoryName = v
			case colSupplier:
				line.SupplierName = v
			case colCost:
				line.Cost = v
			case colPrice:
				line.Price = v
			case colQuantity:
				line.Quantity = v
			case colConsignment:
				line.IsConsignment = v
			}
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil, domain.NewError(domain.ErrValidation, "la planilla no tiene filas de datos")
	}
	return out, nil
}
