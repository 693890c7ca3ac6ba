package security

import "golang.org/x/crypto/bcrypt"

// passwordCost is the bcrypt work factor applied to stored credentials.
const passwordCost = 12

// HashPassword derives the bcrypt hash stored for an account password.
func HashPassword(plain string) (string, error) {
	hashed, errHash := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if errHash != nil {
		return "", errHash
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(stored, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}
