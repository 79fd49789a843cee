package completed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"styledecor/db"
	"styledecor/models"
	"styledecor/users"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// Receipt renders a completed service as a PDF with the tracking code as QR.
func (h *Handlers) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	if bookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var record models.CompletedService
	if err := db.CompletedServiceCollection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&record); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "completed service not found")
		return
	}
	if !users.EnsureOwnership(w, r, record.CustomerEmail) {
		return
	}

	var qrPNG []byte
	if record.TrackingID != "" {
		png, err := qrcode.Encode(record.TrackingID, qrcode.Medium, 256)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
			return
		}
		qrPNG = png
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Service Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Service: %s", record.ServiceName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Customer: %s", record.CustomerEmail))
	pdf.Ln(8)
	if record.DecoratorName != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Decorator: %s", record.DecoratorName))
		pdf.Ln(8)
	}
	pdf.Cell(0, 10, fmt.Sprintf("Amount: %.2f", record.Price))
	pdf.Ln(8)
	if record.TrackingID != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Tracking Code: %s", record.TrackingID))
		pdf.Ln(8)
	}
	pdf.Cell(0, 10, fmt.Sprintf("Completed: %s", record.CompletedAt.Format(time.RFC1123)))
	pdf.Ln(12)

	if qrPNG != nil {
		imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+record.BookingID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
