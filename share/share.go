// Package share renders shareable artifacts: QR codes pointing at an
// activity page and a printable bucket list.
package share

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"wanderlist/models"
)

const (
	DefaultQRSize = 256
	maxQRSize     = 1024
	pdfQRSize     = 24.0
)

// ActivityURL is the public page for an activity.
func ActivityURL(publicURL, activityID string) string {
	return strings.TrimRight(publicURL, "/") + "/activities/" + url.PathEscape(activityID)
}

// QRCode encodes content as a square PNG of size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// BucketListPDF lays out one block per activity with a QR code linking to
// its page.
func BucketListPDF(publicURL string, acts []models.Activity, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, "My Bucket List", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d activities, exported %s", len(acts), now.Format("January 2, 2006")), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	if len(acts) == 0 {
		pdf.SetFont("Arial", "I", 12)
		pdf.CellFormat(0, 10, "Nothing here yet.", "", 1, "L", false, 0, "")
	}

	_, pageH := pdf.GetPageSize()
	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	for i, a := range acts {
		if pdf.GetY()+pdfQRSize+6 > pageH-20 {
			pdf.AddPage()
		}
		top := pdf.GetY()

		png, err := QRCode(ActivityURL(publicURL, a.ActivityID), 128)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("qr-%d", i)
		pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(png))
		pdf.ImageOptions(name, 210-15-pdfQRSize, top, pdfQRSize, pdfQRSize, false, imgOpts, 0, "")

		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(150, 7, tr(a.DisplayName()), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(150, 5, tr(place(a)), "", 1, "L", false, 0, "")
		if d := details(a); d != "" {
			pdf.CellFormat(150, 5, tr(d), "", 1, "L", false, 0, "")
		}

		pdf.SetY(top + pdfQRSize + 2)
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func place(a models.Activity) string {
	city, country := a.LocationCity, a.LocationCountry
	if city == "" {
		city = models.PlaceholderCity
	}
	if country == "" {
		country = models.PlaceholderCountry
	}
	return city + ", " + country
}

func details(a models.Activity) string {
	var parts []string
	switch {
	case a.MinDuration > 0 && a.MaxDuration > a.MinDuration:
		parts = append(parts, fmt.Sprintf("%g - %g hours", a.MinDuration, a.MaxDuration))
	case a.MinDuration > 0:
		parts = append(parts, fmt.Sprintf("%g hours", a.MinDuration))
	}
	if a.Price > 0 {
		cur := a.Currency
		if cur == "" {
			cur = models.DefaultCurrency
		}
		parts = append(parts, fmt.Sprintf("%.2f %s", a.Price, cur))
	}
	return strings.Join(parts, " | ")
}
