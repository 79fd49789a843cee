package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"styledecor/checkout"
	"styledecor/db"
	"styledecor/logger"
	"styledecor/models"
	"styledecor/notify"
	"styledecor/rdx"
	"styledecor/users"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// reconcileLockTTL bounds the per-session Redis guard. It only narrows the
// window for concurrent reconciles; the unique transactionId index is what
// actually guarantees exactly-one Payment.
const reconcileLockTTL = 10 * time.Second

// Processor is the slice of the external checkout API the reconciler needs.
type Processor interface {
	CreateSession(ctx context.Context, p checkout.SessionParams) (*checkout.Session, error)
	GetSession(ctx context.Context, sessionID string) (*checkout.Session, error)
}

type Handlers struct {
	Processor  Processor
	Hub        *notify.Hub
	SiteOrigin string
}

func NewHandlers(processor Processor, hub *notify.Hub, siteOrigin string) *Handlers {
	return &Handlers{Processor: processor, Hub: hub, SiteOrigin: siteOrigin}
}

// CreateCheckoutSession starts a hosted checkout for an unpaid booking.
func (h *Handlers) CreateCheckoutSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.BookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingId": payload.BookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	if !users.EnsureOwnership(w, r, booking.CustomerEmail) {
		return
	}
	if booking.PaymentStatus == models.PaymentPaid {
		utils.RespondWithError(w, http.StatusConflict, "booking already paid")
		return
	}

	session, err := h.Processor.CreateSession(ctx, checkout.SessionParams{
		BookingID:     booking.BookingID,
		ServiceName:   booking.ServiceName,
		CustomerEmail: booking.CustomerEmail,
		Amount:        booking.Price,
		Currency:      "usd",
		SuccessURL:    h.SiteOrigin + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     h.SiteOrigin + "/dashboard/my-bookings",
	})
	if err != nil {
		logger.L.Errorw("checkout session creation failed", "bookingId", booking.BookingID, "err", err)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

// Reconcile bridges a finished checkout session to ledger state, exactly
// once. Safe to call any number of times for the same session: after the
// first successful run every retry returns the recorded trackingId and
// re-asserts booking state without writing a second Payment.
func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	// Per-session guard against concurrent webhook + redirect races.
	acquired, err := rdx.RdxSetNX("settlement_lock:"+sessionID, "1", reconcileLockTTL)
	if err == nil && !acquired {
		utils.RespondWithError(w, http.StatusTooManyRequests, "reconciliation in progress, please retry")
		return
	}
	if err == nil {
		defer func() { _ = rdx.RdxDel("settlement_lock:" + sessionID) }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	session, err := h.Processor.GetSession(ctx, sessionID)
	if err != nil {
		logger.L.Errorw("session retrieval failed", "sessionId", sessionID, "err", err)
		utils.RespondWithAppError(w, err)
		return
	}

	transactionID := session.TransactionID
	if transactionID == "" {
		transactionID = session.ID
	}
	bookingID := session.Metadata["bookingId"]
	if bookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "session metadata is missing bookingId")
		return
	}

	// Idempotency fast path: a recorded Payment means a prior reconcile won.
	var existing models.Payment
	err = db.PaymentsCollection.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&existing)
	if err == nil {
		h.assertBookingPaid(ctx, bookingID, existing.TrackingID)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success":       true,
			"trackingId":    existing.TrackingID,
			"transactionId": existing.TransactionID,
		})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	if session.PaymentStatus != "paid" {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success":       false,
			"paymentStatus": session.PaymentStatus,
		})
		return
	}

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}

	trackingID := GenerateTrackingID()
	payment := models.Payment{
		PaymentID:     utils.GetUUID(),
		TransactionID: transactionID,
		Amount:        session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: booking.CustomerEmail,
		BookingID:     booking.BookingID,
		ServiceID:     booking.ServiceID,
		ServiceName:   booking.ServiceName,
		PaymentStatus: models.PaymentPaid,
		TrackingID:    trackingID,
		PaidAt:        time.Now(),
	}

	// Insert first: the unique index on transactionId decides the winner
	// when two reconciles race past the fast path.
	if _, err := db.PaymentsCollection.InsertOne(ctx, payment); err != nil {
		if db.IsDuplicateKeyError(err) {
			if ferr := db.PaymentsCollection.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&existing); ferr == nil {
				h.assertBookingPaid(ctx, bookingID, existing.TrackingID)
				utils.RespondWithJSON(w, http.StatusOK, utils.M{
					"success":       true,
					"trackingId":    existing.TrackingID,
					"transactionId": existing.TransactionID,
				})
				return
			}
		}
		logger.L.Errorw("payment insert failed", "transactionId", transactionID, "err", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	h.assertBookingPaid(ctx, bookingID, trackingID)

	logger.L.Infow("settlement reconciled",
		"bookingId", bookingID, "transactionId", transactionID, "trackingId", trackingID)
	h.Hub.Publish(notify.Event{
		Action:     "paid",
		BookingID:  bookingID,
		Status:     string(models.StatusPaidAwaiting),
		TrackingID: trackingID,
	}, booking.CustomerEmail)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":       true,
		"trackingId":    trackingID,
		"transactionId": transactionID,
	})
}

// assertBookingPaid stamps the post-payment booking state. Retries converge
// even if a previous run crashed between the Payment insert and the booking
// update, and the filter keeps a late duplicate from rewinding a booking
// that has already moved past assignment-pending.
func (h *Handlers) assertBookingPaid(ctx context.Context, bookingID, trackingID string) {
	_, err := db.BookingsCollection.UpdateOne(ctx,
		paidStampFilter(bookingID),
		paidStampUpdate(trackingID),
	)
	if err != nil {
		logger.L.Errorw("booking payment stamp failed", "bookingId", bookingID, "err", err)
	}
}

// paidStampFilter matches the booking only while it still sits before
// decorator assignment in the lifecycle. nil and "" cover records written
// before the status field was stamped at creation.
func paidStampFilter(bookingID string) bson.M {
	return bson.M{
		"bookingId": bookingID,
		"serviceStatus": bson.M{"$in": bson.A{
			nil, "", models.StatusRequested, models.StatusPaidAwaiting,
		}},
	}
}

func paidStampUpdate(trackingID string) bson.M {
	return bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentPaid,
		"serviceStatus": models.StatusPaidAwaiting,
		"trackingId":    trackingID,
		"updatedAt":     time.Now(),
	}}
}

// PaymentHistory lists the caller's payments, newest first.
func (h *Handlers) PaymentHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}
	if !users.EnsureOwnership(w, r, email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	findOpts := options.Find().SetSort(bson.M{"paidAt": -1})
	cur, err := db.PaymentsCollection.Find(ctx, bson.M{"customerEmail": email}, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var payments []models.Payment
	if err := cur.All(ctx, &payments); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, payments)
}
