package spreadsheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/spreadsheet"
)

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Producto", "Categoría", "Proveedor", "Costo Unitario", "Precio", "Cantidad", "Consignación", "Notas"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Arroz", "Granos", "", 20, 25.5, 10, "no", "ignorar"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Queso", "Lácteos", "Finca", "50", "70", "4", "si"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	lines, err := spreadsheet.Parse("inventario.XLSX", buf)
	require.NoError(t, err)
	require.Len(t, lines, 2, "la fila 3 vacía se omite")

	assert.Equal(t, dto.ImportLineRequest{
		ProductName: "Arroz", CategoryName: "Granos", Cost: "20", Price: "25.5", Quantity: "10", IsConsignment: "no",
	}, lines[0])
	assert.Equal(t, dto.RawValue("Finca"), lines[1].SupplierName)
	assert.Equal(t, dto.RawValue("si"), lines[1].IsConsignment)
}

func TestParse_CSVLatin1PuntoYComa(t *testing.T) {
	// "Café" y "Azúcar" en Windows-1252
	raw := []byte("Nombre del producto;Costo;Cantidad\r\nCaf\xe9;10,5;3\r\n;;\r\nAz\xfacar;2;1\r\n")

	lines, err := spreadsheet.Parse("export.csv", bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, dto.RawValue("Café"), lines[0].ProductName)
	assert.Equal(t, dto.RawValue("10,5"), lines[0].Cost)
	assert.Equal(t, dto.RawValue("Azúcar"), lines[1].ProductName)
}

func TestParse_CSVUTF8ConBOM(t *testing.T) {
	raw := "\ufeffproduct,price,quantity,cost\n\"Pan, integral\",3,5,2\n"
	lines, err := spreadsheet.Parse("a.csv", strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, dto.RawValue("Pan, integral"), lines[0].ProductName)
	assert.Equal(t, dto.RawValue("2"), lines[0].Cost)
}

func TestParse_Errores(t *testing.T) {
	cases := []struct {
		name, file, body string
	}{
		{"extensión", "datos.pdf", "x"},
		{"sin columna de producto", "a.csv", "costo,cantidad\n1,2\n"},
		{"columna repetida", "a.csv", "producto,nombre\nA,B\n"},
		{"vacía", "a.csv", "\n\n"},
		{"solo encabezado", "a.csv", "producto,costo\n"},
		{"xlsx corrupto", "a.xlsx", "no es un zip"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := spreadsheet.Parse(tc.file, strings.NewReader(tc.body))
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
