package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"estatecrm/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateBrochure(property *models.Property, agentName string) (string, error)
}

// BrochureGenerator рисует одностраничный буклет объекта для клиента.
type BrochureGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
	fontName string
}

func NewBrochureGenerator(rootDir, fontPath string) *BrochureGenerator {
	return &BrochureGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

// GenerateBrochure пишет PDF под RootDir и возвращает абсолютный путь.
func (g *BrochureGenerator) GenerateBrochure(p *models.Property, agentName string) (string, error) {
	absPath, err := g.ensureTarget(fmt.Sprintf("property_%d.pdf", p.ID))
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(p.Title, false)
	pdf.SetAuthor("EstateCRM", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, p.Title, "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("Ref. EST-%06d  ·  %s", p.ID, time.Now().Format("02.01.2006"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	pdf.Ln(3)

	// ===== Основное
	g.sectionTitle(pdf, "Property")
	g.kvLine(pdf, "Type", p.Type)
	g.kvLine(pdf, "Price", fmt.Sprintf("%.0f", p.Price))
	g.kvLine(pdf, "City", p.City)
	g.kvLine(pdf, "Address", p.Address)
	g.kvLine(pdf, "Surface", fmt.Sprintf("%.0f m²", p.Surface))
	g.kvLine(pdf, "Bedrooms", fmt.Sprintf("%d", p.Bedrooms))
	g.kvLine(pdf, "Bathrooms", fmt.Sprintf("%d", p.Bathrooms))
	pdf.Ln(2)
	g.hr(pdf)

	// ===== Описание
	if strings.TrimSpace(p.Description) != "" {
		g.sectionTitle(pdf, "Description")
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, p.Description, "", "L", false)
		pdf.Ln(2)
		g.hr(pdf)
	}

	// ===== Контакт
	g.sectionTitle(pdf, "Contact")
	if agentName == "" {
		agentName = "EstateCRM"
	}
	g.kvLine(pdf, "Agent", agentName)
	pdf.Ln(1)
	pdf.SetFont(g.fontName, "", 11)
	pdf.MultiCell(0, 6, "Contact your agent to schedule a viewing of this property.", "", "L", false)

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("%d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// === helpers ===

func (g *BrochureGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *BrochureGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *BrochureGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *BrochureGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *BrochureGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
