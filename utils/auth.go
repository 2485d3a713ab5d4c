// utils/auth.go
package utils

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/middleware"
	"github.com/clinora/clinora_backend/models"
)

func claimsFromContext(c echo.Context) (*middleware.JwtCustomClaims, error) {
	userToken := c.Get("user")
	if userToken == nil {
		return nil, errors.New("no token found")
	}

	token, ok := userToken.(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token type")
	}

	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// GetUserIDFromToken extracts the authenticated user's ID from the JWT token.
func GetUserIDFromToken(c echo.Context) (primitive.ObjectID, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}

// GetClinicIDFromToken extracts the caller's clinic ID from the JWT token.
// Admin tokens carry no clinic and get an error here.
func GetClinicIDFromToken(c echo.Context) (primitive.ObjectID, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if claims.ClinicID == "" {
		return primitive.NilObjectID, errors.New("token carries no clinic")
	}
	return primitive.ObjectIDFromHex(claims.ClinicID)
}

// GetUserFromToken loads the full user behind the token. Handlers that only
// need IDs should use the claim helpers instead of a DB round trip.
func GetUserFromToken(c echo.Context, db *mongo.Database) (*models.User, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return nil, err
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errors.New("invalid user ID format")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("user not found")
		}
		return nil, errors.New("error retrieving user")
	}

	// Don't return password in response
	user.Password = ""

	return &user, nil
}
