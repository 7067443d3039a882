// Package auth verifies Telegram web-app init data. Every API request must
// carry init data signed by Telegram; the verified user id inside it is the
// only identity the rest of the system trusts.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"finbot/internal/logging"
	"finbot/internal/parsererror"
)

const (
	// Signed payloads older than this are replays, not sessions.
	maxAuthAge = 24 * time.Hour
	clockSkew  = 60 * time.Second
)

// User is the Telegram user embedded in verified init data.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Verifier checks init data signatures against one bot's secret.
type Verifier struct {
	secret []byte
	logger logging.Logger
	now    func() time.Time
}

// NewVerifier derives the signing secret from the bot token.
func NewVerifier(botToken string, logger logging.Logger) (*Verifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	secret := sha256.Sum256([]byte(botToken))
	return &Verifier{
		secret: secret[:],
		logger: logger,
		now:    time.Now,
	}, nil
}

// Verify validates one init data payload and returns the user it identifies.
// All rejection reasons collapse into ErrUnauthorized so callers leak nothing
// about which check failed.
func (v *Verifier) Verify(initData string) (User, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return User{}, v.reject("malformed init data")
	}

	providedHash := values.Get("hash")
	if providedHash == "" {
		return User{}, v.reject("missing hash")
	}
	values.Del("hash")

	if !v.checkSignature(values, providedHash) {
		return User{}, v.reject("signature mismatch")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return User{}, v.reject("missing auth_date")
	}
	issued := time.Unix(authDate, 0)
	now := v.now()
	if issued.After(now.Add(clockSkew)) || now.Sub(issued) > maxAuthAge {
		return User{}, v.reject("auth_date outside validity window")
	}

	var user User
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return User{}, v.reject("missing user")
	}
	return user, nil
}

// checkSignature recomputes the HMAC over the sorted key=value lines and
// compares it in constant time.
func (v *Verifier) checkSignature(values url.Values, providedHash string) bool {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(lines, "\n")))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(providedHash)))
}

func (v *Verifier) reject(reason string) error {
	v.logger.WithFields(
		logging.Field{Key: logging.FieldReason, Value: reason},
	).Warn("Rejected init data")
	return parsererror.ErrUnauthorized
}
