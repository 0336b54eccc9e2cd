package coupons

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

const (
	minRedemptionCode = 1000
	maxRedemptionCode = 9999
	codeSpace         = maxRedemptionCode - minRedemptionCode + 1

	couponIDPrefix = "CPN-"
	couponIDLength = 12
)

// CodeGenerator draws candidate redemption codes.
type CodeGenerator interface {
	Next() string
}

type randomCodes struct{}

// RandomCodes draws uniformly from 1000-9999.
func RandomCodes() CodeGenerator {
	return randomCodes{}
}

func (randomCodes) Next() string {
	return strconv.Itoa(minRedemptionCode + rand.IntN(codeSpace))
}

// drawCodes returns n codes that collide neither with live (the codes of
// every issued coupon) nor with each other. live is extended in place.
func drawCodes(gen CodeGenerator, live map[string]struct{}, n int) ([]string, error) {
	if len(live)+n > codeSpace {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not enough free redemption codes for this batch")
	}
	codes := make([]string, 0, n)
	for len(codes) < n {
		code := gen.Next()
		if _, taken := live[code]; taken {
			continue
		}
		live[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// newCouponID returns CPN- followed by 12 upper-case hex characters.
func newCouponID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return couponIDPrefix + strings.ToUpper(raw[:couponIDLength])
}
