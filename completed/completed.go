package completed

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"styledecor/db"
	"styledecor/logger"
	"styledecor/models"
	"styledecor/notify"
	"styledecor/users"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

type Handlers struct {
	Hub *notify.Hub
}

func NewHandlers(hub *notify.Hub) *Handlers {
	return &Handlers{Hub: hub}
}

// Complete archives a booking. The decorator release, history insert and
// live-record delete run in one transaction so a crash cannot lose the
// booking between steps.
func (h *Handlers) Complete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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
	err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingId": payload.BookingID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	archived := models.CompletedService{
		BookingID:      booking.BookingID,
		CustomerEmail:  booking.CustomerEmail,
		CustomerName:   booking.CustomerName,
		ServiceID:      booking.ServiceID,
		ServiceName:    booking.ServiceName,
		Price:          booking.Price,
		BookingDate:    booking.BookingDate,
		Status:         models.CompletedMarker,
		PaymentStatus:  booking.PaymentStatus,
		DecoratorEmail: booking.DecoratorEmail,
		DecoratorName:  booking.DecoratorName,
		TrackingID:     booking.TrackingID,
		BookedAt:       booking.CreatedAt,
		CompletedAt:    time.Now(),
	}

	err = db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if booking.DecoratorEmail != "" {
			if _, err := db.UserCollection.UpdateOne(sc,
				bson.M{"email": booking.DecoratorEmail},
				bson.M{"$set": bson.M{
					"status":    models.AvailabilityAvailable,
					"updatedAt": time.Now(),
				}},
			); err != nil {
				return err
			}
		}
		if _, err := db.CompletedServiceCollection.InsertOne(sc, archived); err != nil {
			return err
		}
		_, err := db.BookingsCollection.DeleteOne(sc, bson.M{"bookingId": booking.BookingID})
		return err
	})
	if err != nil {
		logger.L.Errorw("completion failed", "bookingId", booking.BookingID, "err", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "completion failed")
		return
	}

	logger.L.Infow("booking completed",
		"bookingId", booking.BookingID, "decorator", booking.DecoratorEmail)
	h.Hub.Publish(notify.Event{
		Action:     "completed",
		BookingID:  booking.BookingID,
		Status:     models.CompletedMarker,
		TrackingID: booking.TrackingID,
	}, booking.CustomerEmail, booking.DecoratorEmail)

	utils.RespondWithJSON(w, http.StatusCreated, archived)
}

// History lists completed services for a customer or decorator.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	filter := bson.M{"$or": []bson.M{
		{"customerEmail": email},
		{"decoratorEmail": email},
	}}
	findOpts := options.Find().SetSort(bson.M{"completedAt": -1})

	cur, err := db.CompletedServiceCollection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var history []models.CompletedService
	if err := cur.All(ctx, &history); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if history == nil {
		history = []models.CompletedService{}
	}
	utils.RespondWithJSON(w, http.StatusOK, history)
}
