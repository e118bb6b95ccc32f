package auth

import (
	"errors"
	"strings"
	"time"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/config"
	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	Senha       string `json:"senha"`
	DataNasc    string `json:"datanasc"`    // "1990-05-20"
	DataEntrada string `json:"dataentrada"` // "2024-01-02"
}

type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type UserResponse struct {
	ID          int64  `json:"idusuario"`
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	DataNasc    string `json:"datanasc,omitempty"`
	DataEntrada string `json:"dataentrada,omitempty"`
}

type LoginResponse struct {
	ID    int64  `json:"idusuario"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func RegisterHandler(users database.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.ErrBadRequest
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Nome = strings.TrimSpace(body.Nome)

		if body.Email == "" || body.Senha == "" || body.Nome == "" {
			return apperr.BadRequest("Nome, email e senha são obrigatórios")
		}

		dataNasc, err := optionalDate(body.DataNasc)
		if err != nil {
			return apperr.BadRequest("datanasc deve estar no formato YYYY-MM-DD")
		}
		dataEntrada, err := optionalDate(body.DataEntrada)
		if err != nil {
			return apperr.BadRequest("dataentrada deve estar no formato YYYY-MM-DD")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Senha), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		user := models.User{
			Nome:        body.Nome,
			Email:       body.Email,
			Senha:       string(hash),
			DataNasc:    dataNasc,
			DataEntrada: dataEntrada,
		}

		// the unique index decides, so two concurrent registrations cannot both win
		if err := users.CreateUser(c.UserContext(), &user); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return apperr.ErrEmailTaken
			}
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

func LoginHandler(cfg *config.Config, users database.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.ErrBadRequest
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := users.FindUserByEmail(c.UserContext(), body.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return apperr.ErrInvalidCredentials
			}
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Senha), []byte(body.Senha)); err != nil {
			return apperr.ErrInvalidCredentials
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, user)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		return c.JSON(LoginResponse{
			ID:    user.ID,
			Nome:  user.Nome,
			Email: user.Email,
			Token: token,
		})
	}
}

func MeHandler(users database.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return apperr.ErrUnauthorized
		}

		user, err := users.FindUserByID(c.UserContext(), actor.ID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// token outlived its user
				return apperr.ErrUnauthorized
			}
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		return c.JSON(toUserResponse(user))
	}
}

func toUserResponse(u *models.User) UserResponse {
	resp := UserResponse{ID: u.ID, Nome: u.Nome, Email: u.Email}
	if u.DataNasc != nil {
		resp.DataNasc = u.DataNasc.Format(models.DateLayout)
	}
	if u.DataEntrada != nil {
		resp.DataEntrada = u.DataEntrada.Format(models.DateLayout)
	}
	return resp
}

func optionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
