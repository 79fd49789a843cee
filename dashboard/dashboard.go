package dashboard

import (
	"context"
	"net/http"
	"strings"
	"time"

	"styledecor/db"
	"styledecor/models"
	"styledecor/users"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 10 * time.Second

// sumField totals one numeric field over the documents matching filter.
func sumField(ctx context.Context, coll *mongo.Collection, filter bson.M, field string) (float64, error) {
	pipeline := []bson.M{
		{"$match": filter},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$" + field},
		}},
	}
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// AdminSummary returns platform-wide rollups. Admin only.
func AdminSummary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller := utils.GetIdentityFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	if users.RoleOf(ctx, caller) != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "forbidden")
		return
	}

	totalUsers, err := db.UserCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	totalDecorators, _ := db.UserCollection.CountDocuments(ctx, bson.M{"role": models.RoleDecorator})
	totalBookings, _ := db.BookingsCollection.CountDocuments(ctx, bson.M{})
	paidBookings, _ := db.BookingsCollection.CountDocuments(ctx, bson.M{"paymentStatus": models.PaymentPaid})
	completedCount, _ := db.CompletedServiceCollection.CountDocuments(ctx, bson.M{})

	revenue, err := sumField(ctx, db.PaymentsCollection, bson.M{}, "amount")
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	completedTotal, err := sumField(ctx, db.CompletedServiceCollection, bson.M{}, "price")
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"totalUsers":        totalUsers,
		"totalDecorators":   totalDecorators,
		"totalBookings":     totalBookings,
		"paidBookings":      paidBookings,
		"completedServices": completedCount,
		"revenue":           revenue,
		"earnings":          Earnings(completedTotal),
	})
}

// DecoratorSummary returns identity-scoped rollups for a decorator.
func DecoratorSummary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	if email == "" {
		email = utils.GetIdentityFromRequest(r)
	}
	if !users.EnsureOwnership(w, r, email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	assigned, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"decoratorEmail": email,
		"serviceStatus":  models.StatusDecoratorAssigned,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	completedCount, _ := db.CompletedServiceCollection.CountDocuments(ctx, bson.M{"decoratorEmail": email})

	completedTotal, err := sumField(ctx, db.CompletedServiceCollection, bson.M{"decoratorEmail": email}, "price")
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"assignedBookings":  assigned,
		"completedServices": completedCount,
		"earnings":          Earnings(completedTotal),
	})
}

// CustomerSummary returns identity-scoped rollups for a customer.
func CustomerSummary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	if email == "" {
		email = utils.GetIdentityFromRequest(r)
	}
	if !users.EnsureOwnership(w, r, email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	totalBookings, err := db.BookingsCollection.CountDocuments(ctx, bson.M{"customerEmail": email})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	paidCount, _ := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"customerEmail": email,
		"paymentStatus": models.PaymentPaid,
	})
	completedCount, _ := db.CompletedServiceCollection.CountDocuments(ctx, bson.M{"customerEmail": email})

	totalSpent, err := sumField(ctx, db.PaymentsCollection, bson.M{"customerEmail": email}, "amount")
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"totalBookings":     totalBookings,
		"paidBookings":      paidCount,
		"completedServices": completedCount,
		"totalSpent":        totalSpent,
	})
}
