package types

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateEventRequestBody struct {
	Name        string `json:"name" binding:"required"`
	City        string `json:"city" binding:"required"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndDate     string `json:"end_date" binding:"required,gtdate=StartDate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type CreateSeatRequestBody struct {
	Type     string  `json:"type" binding:"required"`
	Quantity *uint   `json:"quantity" binding:"required"`
	Price    float64 `json:"price" binding:"min=0"`
}

type AddToCartRequestBody struct {
	SeatID   uint `json:"seat" binding:"required"`
	Quantity uint `json:"quantity" binding:"required,min=1"`
}

type SearchEventsQuery struct {
	Name     string `form:"name"`
	City     string `form:"city"`
	FromDate string `form:"from_date" binding:"omitempty" time_format:"2006-01-02 15:04:05 -07:00"`
	ToDate   string `form:"to_date" binding:"omitempty,gtdate=FromDate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type CheckoutRequestBody struct {
	Method string `json:"method" binding:"required"`
}

type FeedbackRequestBody struct {
	Email   string `json:"email" binding:"required,email"`
	Comment string `json:"comment" binding:"required"`
}
