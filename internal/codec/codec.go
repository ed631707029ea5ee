// Package codec turns a (question, event) pair into a token the client can
// carry between requests, so the server keeps no per-game state.
//
// The event is read as a big-endian unsigned integer, XORed with a key that
// is fixed for the life of the process, and written as "<question>:<xor>"
// in base64. This hides the answer from a casual look at the traffic. It is
// not encryption: nothing is held back from the client except the key, and
// one token with a known answer is enough to recover it.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CodeAndHammer/eventdle/internal/catalog"
)

var ErrMalformedToken = errors.New("malformed token")

const separator = ":"

type Codec struct {
	key *big.Int
}

// NewCodec returns a Codec using key. A nil or negative key is treated as
// zero. Tokens decode only with the key that produced them.
func NewCodec(key *big.Int) *Codec {
	k := new(big.Int)
	if key != nil && key.Sign() > 0 {
		k.Set(key)
	}
	return &Codec{key: k}
}

// KeyFromTime snapshots t as Unix seconds.
func KeyFromTime(t time.Time) *big.Int {
	return big.NewInt(t.Unix())
}

// Key returns a copy of the obfuscation key.
func (c *Codec) Key() *big.Int {
	return new(big.Int).Set(c.key)
}

func (c *Codec) Encode(question catalog.QuestionID, secret string) string {
	n := new(big.Int).SetBytes([]byte(secret))
	n.Xor(n, c.key)
	payload := question.String() + separator + n.String()
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func (c *Codec) Decode(token string) (catalog.QuestionID, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !utf8.Valid(raw) {
		return 0, "", fmt.Errorf("%w: payload is not valid text", ErrMalformedToken)
	}

	questionPart, xorPart, ok := strings.Cut(string(raw), separator)
	if !ok {
		return 0, "", fmt.Errorf("%w: missing separator", ErrMalformedToken)
	}

	question, err := catalog.ParseQuestionID(questionPart)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	n, ok := new(big.Int).SetString(xorPart, 10)
	if !ok || n.Sign() < 0 {
		return 0, "", fmt.Errorf("%w: bad number %q", ErrMalformedToken, xorPart)
	}
	n.Xor(n, c.key)

	// Bytes is the minimal big-endian form; zero gives an empty slice.
	secret := n.Bytes()
	if !utf8.Valid(secret) {
		return 0, "", fmt.Errorf("%w: secret is not valid text", ErrMalformedToken)
	}
	return question, string(secret), nil
}
