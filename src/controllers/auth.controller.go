package controllers

import (
	"errors"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func AuthRegister(ctx *gin.Context) (uid *uint, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	db := db.GetDb()
	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var muser models.User
		if err := tx.
			Model(&models.User{}).
			Select("id").
			Where("email = ?", body.Email).
			First(&muser).
			Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("could not complete transaction")
			}
		}
		if muser.ID > 0 {
			err := errors.New("user is already registered in the system. Please proceed to Log In")
			log.Printf("error: %s\n", err.Error())
			return err
		}
		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			return err
		}
		// Self-registration never grants the owner capability; organizer
		// accounts are provisioned directly.
		user = models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         types.ROLE_CUSTOMER,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &user.ID, http.StatusOK, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	db := db.GetDb()
	var user models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if !utils.VerifyPassword(user.PasswordHash, body.Password) {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	signed, err := utils.GenerateJWT(&user)
	if err != nil {
		log.Printf("Error signing token: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return &signed, http.StatusOK, nil
}
