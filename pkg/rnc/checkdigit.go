package rnc

// pesos DGII para el dígito verificador del RNC (8 primeros dígitos).
var rncWeights = [8]int{7, 9, 8, 6, 5, 4, 3, 2}

// checkDigitOK aplica el algoritmo de la DGII: módulo 11 ponderado para RNC y
// Luhn para cédula. El resultado es informativo; Validate no rechaza por él.
func checkDigitOK(kind Kind, digits string) bool {
	switch kind {
	case KindRNC:
		return rncCheckDigit(digits[:8]) == digits[8]
	case KindCedula:
		return luhnValid(digits)
	}
	return false
}

func rncCheckDigit(base string) byte {
	var sum int
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * rncWeights[i]
	}
	check := (10-sum%11)%9 + 1
	return byte('0' + check)
}

func luhnValid(digits string) bool {
	var sum int
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
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
