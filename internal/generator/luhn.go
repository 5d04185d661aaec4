package generator

// LuhnCheckDigit returns the digit that makes payload+digit pass ValidLuhn.
// payload must contain only ASCII digits.
func LuhnCheckDigit(payload string) byte {
	sum := 0
	// The check digit will sit at position 1, so the rightmost payload digit
	// is the first one doubled.
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}

// ValidLuhn reports whether number is all digits and passes the Luhn check.
func ValidLuhn(number string) bool {
	if len(number) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
