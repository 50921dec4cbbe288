package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/config"
	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/repository"
	"github.com/famquest/family-server-go/internal/util"
)

// Family codes avoid 0/O/1/I so they survive being read out loud.
const familyCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	familyCodeLength  = 8
	familyCodeRetries = 5
	minPasswordLength = 6
)

// tokenClaims is the JWT payload for both adult and child tokens. Child tokens
// additionally carry the server-side session token, which is re-checked on
// every request.
type tokenClaims struct {
	Role         model.Role `json:"role"`
	FamilyID     string     `json:"familyId,omitempty"`
	ChildID      string     `json:"childId,omitempty"`
	SessionToken string     `json:"sessionToken,omitempty"`
	jwt.RegisteredClaims
}

// AuthService issues and validates bearer tokens and handles parent
// registration and sign-in.
type AuthService struct {
	repos      *repository.Repos
	inTx       txRunner
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(db *database.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		repos:      repository.NewRepos(db),
		inTx:       newTxRunner(db),
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL(),
		bcryptCost: cfg.BcryptCost,
	}
}

type SignUpParentInput struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"displayName,omitempty"`
	ClanName    *string `json:"clanName,omitempty"`
}

type AuthResult struct {
	AccessToken string         `json:"accessToken"`
	User        *model.User    `json:"user"`
	Profile     *model.Profile `json:"profile"`
	Family      *model.Family  `json:"family,omitempty"`
}

// SignUpParent registers a new adult account and creates their family. The
// user, family, and parent profile are written in one transaction.
func (s *AuthService) SignUpParent(ctx context.Context, input SignUpParentInput) (*AuthResult, error) {
	email := util.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.InvalidInput("password", "must be at least 6 characters")
	}

	existing, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("User")
	}

	hash, err := util.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password").WithCause(err)
	}

	result := &AuthResult{}
	err = s.inTx(ctx, func(r *repository.Repos) error {
		user, err := r.Users.Create(ctx, model.CreateUserParams{
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			return apperrors.Database(err)
		}

		code, err := s.uniqueFamilyCode(ctx, r)
		if err != nil {
			return err
		}

		family, err := r.Families.Create(ctx, model.CreateFamilyParams{
			OwnerUserID: user.ID,
			FamilyCode:  code,
			ClanName:    input.ClanName,
		})
		if err != nil {
			return apperrors.Database(err)
		}

		profile, err := r.Profiles.Create(ctx, model.CreateProfileParams{
			UserID:      user.ID,
			FamilyID:    family.ID,
			Role:        model.RoleParent,
			DisplayName: input.DisplayName,
		})
		if err != nil {
			return apperrors.Database(err)
		}

		result.User = user
		result.Family = family
		result.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.signAdultToken(result.User.ID, result.Profile.Role, result.Family.ID)
	if err != nil {
		return nil, err
	}
	result.AccessToken = token

	log.Info().
		Str("user_id", result.User.ID).
		Str("family_id", result.Family.ID).
		Msg("parent signed up")

	return result, nil
}

// SignIn authenticates an adult by email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = util.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.MissingRequired("email and password")
	}

	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	profile, err := s.repos.Profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.Forbidden("Account has no family profile")
	}

	family, err := s.repos.Families.FindByID(ctx, profile.FamilyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.repos.Users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record login time")
	}

	token, err := s.signAdultToken(user.ID, profile.Role, profile.FamilyID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken: token,
		User:        user,
		Profile:     profile,
		Family:      family,
	}, nil
}

// SignChildToken mints a bearer token for an approved child session.
func (s *AuthService) SignChildToken(familyID, childID, sessionToken string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role:         model.RoleChild,
		FamilyID:     familyID,
		ChildID:      childID,
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "child:" + childID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return s.sign(claims)
}

func (s *AuthService) signAdultToken(userID string, role model.Role, familyID string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role:     role,
		FamilyID: familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return s.sign(claims)
}

func (s *AuthService) sign(claims tokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal("Failed to sign token").WithCause(err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token and resolves the current principal.
// Adult roles are re-read from the profile so a role upgrade takes effect
// without reissuing tokens. Child tokens are valid only while their session
// and device binding are both active.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*model.Principal, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.InvalidToken("Invalid or expired token")
	}

	if claims.Role == model.RoleChild {
		return s.validateChild(ctx, claims)
	}
	return s.validateAdult(ctx, claims)
}

func (s *AuthService) validateChild(ctx context.Context, claims *tokenClaims) (*model.Principal, error) {
	if claims.SessionToken == "" {
		return nil, apperrors.InvalidToken("Malformed child token")
	}

	session, err := s.repos.Sessions.FindByToken(ctx, claims.SessionToken)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil || !session.IsActive {
		return nil, apperrors.SessionRevoked()
	}
	if !session.BindingIsActive {
		return nil, apperrors.DeviceRevoked()
	}

	child, err := s.repos.Children.FindByID(ctx, session.ChildID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if child == nil || !child.IsActive {
		return nil, apperrors.SessionRevoked()
	}

	return &model.Principal{
		Role:         model.RoleChild,
		FamilyID:     session.FamilyID,
		ChildID:      session.ChildID,
		SessionToken: session.Token,
	}, nil
}

func (s *AuthService) validateAdult(ctx context.Context, claims *tokenClaims) (*model.Principal, error) {
	userID := claims.Subject
	if userID == "" {
		return nil, apperrors.InvalidToken("Malformed token")
	}

	profile, err := s.repos.Profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.Unauthorized("Account no longer exists")
	}

	return &model.Principal{
		Role:     profile.Role,
		UserID:   userID,
		FamilyID: profile.FamilyID,
	}, nil
}

func (s *AuthService) uniqueFamilyCode(ctx context.Context, r *repository.Repos) (string, error) {
	for i := 0; i < familyCodeRetries; i++ {
		code, err := generateFamilyCode()
		if err != nil {
			return "", apperrors.Internal("Failed to generate family code").WithCause(err)
		}
		existing, err := r.Families.FindByCode(ctx, code)
		if err != nil {
			return "", apperrors.Database(err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", apperrors.Internal("Failed to generate a unique family code")
}

func generateFamilyCode() (string, error) {
	code := make([]byte, familyCodeLength)
	max := big.NewInt(int64(len(familyCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = familyCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
