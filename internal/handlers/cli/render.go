package cli

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gabapcia/txpager/internal/pagination"
)

var (
	colorHeader = lipgloss.Color("#F15BB5")
	colorHash   = lipgloss.Color("#00B4D8")
	colorMeta   = lipgloss.Color("#555555")
	colorError  = lipgloss.Color("#FF4444")
	colorTitle  = lipgloss.Color("#9B5DE5")

	stylePlain  = lipgloss.NewStyle()
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleHash   = lipgloss.NewStyle().Foreground(colorHash)
	styleMeta   = lipgloss.NewStyle().Foreground(colorMeta)
	styleError  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleTitle  = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
)

type column struct {
	title string
	width int
	style lipgloss.Style
	cell  func(pagination.Transaction) string
}

var columns = []column{
	{title: "Hash", width: 13, style: styleHash, cell: func(tx pagination.Transaction) string { return shorten(tx.Hash) }},
	{title: "Block", width: 10, style: stylePlain, cell: func(tx pagination.Transaction) string { return strconv.FormatUint(tx.BlockNumber, 10) }},
	{title: "From", width: 13, style: styleHash, cell: func(tx pagination.Transaction) string { return shorten(tx.From) }},
	{title: "To", width: 13, style: styleHash, cell: func(tx pagination.Transaction) string {
		if tx.To == "" {
			return "(create)"
		}
		return shorten(tx.To)
	}},
	{title: "Value (ETH)", width: 14, style: stylePlain, cell: func(tx pagination.Transaction) string { return formatEther(tx.Value) }},
	{title: "Method", width: 16, style: stylePlain, cell: func(tx pagination.Transaction) string { return tx.Method }},
	{title: "Status", width: 7, style: stylePlain, cell: func(tx pagination.Transaction) string { return tx.Status }},
	{title: "Time (UTC)", width: 19, style: styleMeta, cell: func(tx pagination.Transaction) string {
		if tx.Timestamp.IsZero() {
			return ""
		}
		return tx.Timestamp.UTC().Format("2006-01-02 15:04:05")
	}},
}

// shorten renders 0x1234…5678 for hashes and addresses.
func shorten(s string) string {
	if len(s) <= 13 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// formatEther renders a base 10 wei amount with up to 6 decimals.
func formatEther(wei string) string {
	v, ok := new(big.Rat).SetString(wei)
	if !ok {
		return wei
	}

	s := v.Quo(v, big.NewRat(1e18, 1)).FloatString(6)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// pad fits s into exactly width visible cells.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}

	runes := []rune(s)
	for lipgloss.Width(string(runes)) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

func renderTable(items []pagination.Transaction) string {
	var sb strings.Builder

	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = styleHeader.Render(pad(col.title, col.width))
	}
	sb.WriteString(strings.Join(cells, " ") + "\n")

	for i, col := range columns {
		cells[i] = styleMeta.Render(strings.Repeat("-", col.width))
	}
	sb.WriteString(strings.Join(cells, " ") + "\n")

	for _, tx := range items {
		for i, col := range columns {
			cells[i] = col.style.Render(pad(col.cell(tx), col.width))
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}

	return sb.String()
}

func footer(result pagination.ResultPage) string {
	line := fmt.Sprintf("Page %d of %d", result.Page, result.TotalPages)

	if result.Clamped() {
		line += styleMeta.Render(fmt.Sprintf("  (page %d is past the end; showing the last page)", result.Requested))
	}

	return line + "\n"
}

func renderPage(result pagination.ResultPage) string {
	var sb strings.Builder

	sb.WriteString(styleTitle.Render(result.Key.String()) + "\n")
	if len(result.Items) == 0 {
		sb.WriteString(styleMeta.Render("No transactions") + "\n")
	} else {
		sb.WriteString(renderTable(result.Items))
	}
	sb.WriteString(footer(result))

	return sb.String()
}

func renderError(err error) string {
	return styleError.Render("✗ "+err.Error()) + "\n"
}
