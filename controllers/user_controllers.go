package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/middlewares"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Register creates a customer or worker account. Staff accounts are
// provisioned out of band.
func (uc *UserController) Register(c *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required,max=255"`
		Email    string `json:"email" binding:"required,email,max=255"`
		Phone    string `json:"phone" binding:"omitempty,max=20,phone"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"omitempty,oneof=customer worker"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Role == "" {
		req.Role = role.Customer.String()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondInternalError(c, "Failed to register user", err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
		Role:     req.Role,
	}

	if err := uc.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondValidation(c, invalidDataMessage, map[string]string{"email": "has already been taken"})
			return
		}
		utils.RespondInternalError(c, "Failed to register user", err)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	r, err := role.Parse(user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	token, err := utils.GenerateToken(user.ID, r.String(), user.Email)
	if err != nil {
		utils.RespondInternalError(c, "Failed to issue token", err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, r)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": r,
		"user_id":   user.ID,
	})
}

// Logout revokes the presented token until it expires.
func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	ttl := utils.JWTTTL
	if v, ok := c.Get(middlewares.ContextClaims); ok {
		if claims, ok := v.(*utils.CustomClaims); ok {
			ttl = claims.RemainingTTL()
		}
	}

	if err := utils.BlacklistToken(c.Request.Context(), token, ttl); err != nil {
		utils.RespondInternalError(c, "Failed to log out", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile -> the authenticated user, plus the worker profile for workers.
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	profile := gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}

	if middlewares.CurrentRole(c) == role.Worker {
		worker, err := services.NewWorkerDirectory(uc.DB).ResolveForUser(c.Request.Context(), user.ID, user.Email)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		profile["worker"] = worker
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", profile)
}
