package enums

import "fmt"

// CryptoCurrency identifies a currency/network pair the platform can
// receive on. Buyers always pay a platform address, never a seller.
type CryptoCurrency string

const (
	CryptoCurrencyUSDTTRC20 CryptoCurrency = "usdt_trc20"
	CryptoCurrencyUSDTERC20 CryptoCurrency = "usdt_erc20"
	CryptoCurrencyBTC       CryptoCurrency = "btc"
	CryptoCurrencyETH       CryptoCurrency = "eth"
)

var validCryptoCurrencies = []CryptoCurrency{
	CryptoCurrencyUSDTTRC20,
	CryptoCurrencyUSDTERC20,
	CryptoCurrencyBTC,
	CryptoCurrencyETH,
}

// String implements fmt.Stringer.
func (c CryptoCurrency) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CryptoCurrency.
func (c CryptoCurrency) IsValid() bool {
	for _, candidate := range validCryptoCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCryptoCurrency converts raw input into a CryptoCurrency.
func ParseCryptoCurrency(value string) (CryptoCurrency, error) {
	for _, candidate := range validCryptoCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid crypto currency %q", value)
}
