package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// UserHandler bundles dependencies for the /users endpoints.
type UserHandler struct {
	Cfg     config.Config
	Users   repository.UserRepository
	Reviews repository.ReviewRepository
	Files   *storage.Files
}

func NewUserHandler(cfg config.Config, set *repository.Set, files *storage.Files) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: set.Users, Reviews: set.Reviews, Files: files}
}

// ----- DTOs -----

type createUserReq struct {
	Username string       `json:"username" validate:"required,max=50"`
	Password string       `json:"password" validate:"required,max=72"`
	Age      *int         `json:"age" validate:"required,gte=0"`
	Gender   model.Gender `json:"gender" validate:"required,gender"`
}

type updateUserReq struct {
	Username *string       `json:"username" validate:"omitempty,min=1,max=50"`
	Password *string       `json:"password" validate:"omitempty,min=1,max=72"`
	Age      *int          `json:"age" validate:"omitempty,gte=0"`
	Gender   *model.Gender `json:"gender" validate:"omitempty,gender"`
}

type loginReq struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResp struct {
	ID              uint64       `json:"id"`
	Username        string       `json:"username"`
	Age             int          `json:"age"`
	Gender          model.Gender `json:"gender"`
	LastLogin       *time.Time   `json:"last_login"`
	ProfileImageURL *string      `json:"profile_image_url"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:              u.ID,
		Username:        u.Username,
		Age:             u.Age,
		Gender:          u.Gender,
		LastLogin:       u.LastLogin,
		ProfileImageURL: optional(u.ProfileImageURL),
	}
}

func toUserResps(us []model.User) []userResp {
	out := make([]userResp, len(us))
	for i, u := range us {
		out[i] = toUserResp(u)
	}
	return out
}

// Create registers a user and answers with its id.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.Create(ctx, model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Age:          *req.Age,
		Gender:       req.Gender,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": u.ID})
}

// List returns every user, or 404 when there are none.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.All(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if len(users) == 0 {
		return notFound(c, "no users found")
	}
	return c.JSON(http.StatusOK, toUserResps(users))
}

// Search filters users by username, age and gender. Other query keys are
// rejected.
func (h *UserHandler) Search(c echo.Context) error {
	var q model.UserQuery
	for key, vals := range c.QueryParams() {
		v := vals[0]
		switch key {
		case "username":
			q.Username = &v
		case "age":
			age, err := strconv.Atoi(v)
			if err != nil || age < 0 {
				return badRequest(c, "age must be a non-negative integer")
			}
			q.Age = &age
		case "gender":
			g, err := model.ParseGender(v)
			if err != nil {
				return badRequest(c, err.Error())
			}
			q.Gender = &g
		default:
			return badRequest(c, "unknown query parameter: "+key)
		}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.Filter(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	if len(users) == 0 {
		return notFound(c, "no users found")
	}
	return c.JSON(http.StatusOK, toUserResps(users))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, found, err := h.Users.Get(ctx, model.UserQuery{ID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "user not found")
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Login checks the credentials (form or JSON body), records last_login and
// issues an access token.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, found, err := h.Users.Get(ctx, model.UserQuery{Username: &req.Username})
	if err != nil {
		return respondError(c, err)
	}
	if !found || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect username or password"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	now := time.Now().UTC()
	if _, _, err := h.Users.Update(ctx, u.ID, model.UserPatch{LastLogin: &now}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: access.Token, TokenType: "bearer"})
}

func (h *UserHandler) Me(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, toUserResp(u))
}

// UpdateMe patches the current user; a new password is hashed first.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	me, _ := middleware.CurrentUser(c)
	var req updateUserReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	patch := model.UserPatch{Username: req.Username, Age: req.Age, Gender: req.Gender}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return respondError(c, err)
		}
		patch.PasswordHash = &hash
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, found, err := h.Users.Update(ctx, me.ID, patch)
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "user not found")
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

func (h *UserHandler) DeleteMe(c echo.Context) error {
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := dbCtx(c)
	defer cancel()
	images, err := reviewImages(ctx, h.Reviews, model.ReviewQuery{UserID: &me.ID})
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.Users.Delete(ctx, me.ID); err != nil {
		return respondError(c, err)
	}
	if me.ProfileImageURL != "" {
		images = append(images, me.ProfileImageURL)
	}
	for _, path := range images {
		removeImage(h.Files, path)
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "Successfully Deleted."})
}

// UploadProfileImage stores the multipart "image" and replaces the previous
// profile image.
func (h *UserHandler) UploadProfileImage(c echo.Context) error {
	me, _ := middleware.CurrentUser(c)
	path, present, err := saveImage(c, h.Files, "image", storage.DirProfileImages)
	if err != nil {
		return respondError(c, err)
	}
	if !present {
		return respondError(c, storage.ErrNoFilename)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, found, err := h.Users.Update(ctx, me.ID, model.UserPatch{ProfileImageURL: &path})
	if err != nil || !found {
		removeImage(h.Files, path)
		if err != nil {
			return respondError(c, err)
		}
		return notFound(c, "user not found")
	}
	if me.ProfileImageURL != "" {
		removeImage(h.Files, me.ProfileImageURL)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}
