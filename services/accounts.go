package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"learnerslogue/database"
	"learnerslogue/mailer"
	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
	otpTTL            = 5 * time.Minute

	profilePicFolder = "profile-pics"
)

type Accounts struct {
	deps Deps
}

type NewUser struct {
	Role     string
	Email    string
	Phone    string
	Password string
	FullName string
}

func (a *Accounts) Register(ctx context.Context, in NewUser) (*models.User, error) {
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, validationError("Role must be one of student, teacher or school.")
	}
	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)
	if email == "" && phone == "" {
		return nil, validationError("Email or phone is required.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("Password must be at least %d characters.", minPasswordLength)
	}

	if _, err := a.deps.Stores.Users.FindByEmailOrPhone(ctx, email, phone); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Role:         role,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Milestones:   []models.Milestone{},
		Following:    []primitive.ObjectID{},
		Followers:    []primitive.ObjectID{},
	}
	if err := a.deps.Stores.Users.Create(ctx, u); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	if u.Email != "" {
		mailer.Deliver(a.deps.Mailer, mailer.Message{
			To:      u.Email,
			Subject: "Welcome to LearnersLogue",
			Text:    fmt.Sprintf("Hi %s, your %s account is ready.", displayName(u), u.Role),
		})
	}
	return u, nil
}

// Authenticate checks a password against the account found by email or phone.
func (a *Accounts) Authenticate(ctx context.Context, handle, password string) (*models.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || password == "" {
		return nil, validationError("Email or phone and password are required.")
	}
	email, phone := "", handle
	if strings.Contains(handle, "@") {
		email, phone = normalizeEmail(handle), ""
	}
	u, err := a.deps.Stores.Users.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

type ProfileView struct {
	*models.User
	Followers []models.UserSummary `json:"followers"`
	Following []models.UserSummary `json:"following"`
}

func (a *Accounts) Profile(ctx context.Context, id primitive.ObjectID) (*ProfileView, error) {
	u, err := a.deps.Stores.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	ids := append(append([]primitive.ObjectID{}, u.Followers...), u.Following...)
	cards, err := summaries(ctx, a.deps.Stores.Users, ids, socialCard)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{
		User:      u,
		Followers: make([]models.UserSummary, 0, len(u.Followers)),
		Following: make([]models.UserSummary, 0, len(u.Following)),
	}
	for _, fid := range u.Followers {
		if c, ok := cards[fid]; ok {
			view.Followers = append(view.Followers, c)
		}
	}
	for _, fid := range u.Following {
		if c, ok := cards[fid]; ok {
			view.Following = append(view.Following, c)
		}
	}
	return view, nil
}

// ProfileUpdate carries the editable fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName   *string
	DOB        *time.Time
	Gender     *string
	School     *string
	City       *string
	State      *string
	ProfilePic *string
	Role       *string
	Phone      *string
}

func (a *Accounts) UpdateProfile(ctx context.Context, callerID, id primitive.ObjectID, in ProfileUpdate) (*models.User, error) {
	if callerID != id {
		return nil, forbidden("You can only update your own profile.")
	}
	var role models.Role
	if in.Role != nil {
		r, err := models.ParseRole(*in.Role)
		if err != nil {
			return nil, validationError("Role must be one of student, teacher or school.")
		}
		role = r
	}

	u, err := a.edit(ctx, id, func(u *models.User) error {
		setString(&u.FullName, in.FullName)
		setString(&u.Gender, in.Gender)
		setString(&u.School, in.School)
		setString(&u.City, in.City)
		setString(&u.State, in.State)
		setString(&u.ProfilePic, in.ProfilePic)
		setString(&u.Phone, in.Phone)
		if in.DOB != nil {
			dob := in.DOB.UTC()
			u.DOB = &dob
		}
		if role != "" {
			u.Role = role
		}
		return nil
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, ErrUserExists
	}
	return u, err
}

func (a *Accounts) SetProfilePicture(ctx context.Context, id primitive.ObjectID, r io.Reader, filename string) (*models.User, error) {
	if err := checkImage(filename); err != nil {
		return nil, err
	}
	if _, err := a.deps.Stores.Users.FindByID(ctx, id); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	url, err := a.upload(ctx, r, filename, profilePicFolder)
	if err != nil {
		return nil, err
	}
	return a.edit(ctx, id, func(u *models.User) error {
		u.ProfilePic = url
		return nil
	})
}

func (a *Accounts) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("Email is required")
	}
	code, err := newOTPCode()
	if err != nil {
		return err
	}
	otp := models.OTP{Email: email, Code: code, ExpiresAt: a.deps.Now().Add(otpTTL).UTC()}
	if err := a.deps.Stores.OTPs.Put(ctx, otp); err != nil {
		return err
	}

	msg := mailer.Message{
		To:      email,
		Subject: "Your LearnersLogue verification code",
		Text:    fmt.Sprintf("Your OTP is %s. It expires in %d minutes.", code, int(otpTTL.Minutes())),
	}
	if err := a.deps.Mailer.Send(ctx, msg); err != nil {
		log.Printf("[SendOTP] mail to %s failed: %v", email, err)
		return upstreamError("Failed to send OTP", err)
	}
	return nil
}

// VerifyOTP confirms a matching live code and marks it verified. The code
// stays valid for ResetPassword until it is consumed or expires.
func (a *Accounts) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	otp, err := a.checkOTP(ctx, email, code)
	if err != nil {
		return err
	}
	if otp.Verified {
		return nil
	}
	otp.Verified = true
	return a.deps.Stores.OTPs.Put(ctx, *otp)
}

// ResetPassword sets a new password for the account owning email. The code
// is consumed whether or not it was verified first.
func (a *Accounts) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return validationError("Password must be at least %d characters.", minPasswordLength)
	}
	email = normalizeEmail(email)
	u, err := a.deps.Stores.Users.FindByEmailOrPhone(ctx, email, "")
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if _, err := a.checkOTP(ctx, email, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err = a.edit(ctx, u.ID, func(u *models.User) error {
		u.PasswordHash = string(hash)
		return nil
	}); err != nil {
		return err
	}
	return a.deps.Stores.OTPs.Delete(ctx, email)
}

// checkOTP returns the live record matching code. Expired records are removed.
func (a *Accounts) checkOTP(ctx context.Context, email, code string) (*models.OTP, error) {
	otp, err := a.deps.Stores.OTPs.Get(ctx, email)
	if err != nil {
		return nil, notFound(err, ErrOTPNotFound)
	}
	if a.deps.Now().After(otp.ExpiresAt) {
		if err := a.deps.Stores.OTPs.Delete(ctx, email); err != nil {
			log.Printf("[OTP] delete expired code for %s: %v", email, err)
		}
		return nil, ErrOTPExpired
	}
	if strings.TrimSpace(code) != otp.Code {
		return nil, ErrOTPInvalid
	}
	return otp, nil
}

// edit runs a versioned read-modify-write on one account.
func (a *Accounts) edit(ctx context.Context, id primitive.ObjectID, mutate func(*models.User) error) (*models.User, error) {
	users := a.deps.Stores.Users
	var out *models.User
	err := retryOnConflict(ctx, a.deps.SaveAttempts, func() error {
		u, err := users.FindByID(ctx, id)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if err := mutate(u); err != nil {
			return err
		}
		if err := users.Save(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (a *Accounts) upload(ctx context.Context, r io.Reader, filename, folder string) (string, error) {
	return uploadImage(ctx, a.deps.Uploader, r, filename, folder)
}

func uploadImage(ctx context.Context, up Uploader, r io.Reader, filename, folder string) (string, error) {
	if up == nil {
		return "", upstreamError("File uploads are not configured", nil)
	}
	url, err := up.Upload(ctx, r, filename, folder)
	if err != nil {
		log.Printf("[Upload] %s to %s failed: %v", filename, folder, err)
		return "", upstreamError("Failed to upload image", err)
	}
	return url, nil
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

func checkImage(filename string) error {
	if !imageExts[strings.ToLower(filepath.Ext(filename))] {
		return validationError("Only .png, .jpg and .jpeg images are allowed.")
	}
	return nil
}

func newOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return "there"
}
