package invitation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// newToken mints a one-time token "<invitationID>.<secret>" and the bcrypt
// hash of the secret for storage. The id prefix lets lookup go by primary key
// while the secret stays uncomparable at rest.
func newToken(invitationID uuid.UUID) (token string, secretHash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return invitationID.String() + "." + secret, string(hash), nil
}

// splitToken separates the invitation id from the secret.
func splitToken(token string) (uuid.UUID, string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 || parts[1] == "" {
		return uuid.Nil, "", fmt.Errorf("malformed token")
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("malformed token")
	}
	return id, parts[1], nil
}

// verifySecret checks a presented secret against the stored hash.
func verifySecret(secretHash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)) == nil
}
