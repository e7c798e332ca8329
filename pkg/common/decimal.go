package common

import (
	decimal2 "github.com/govalues/decimal"
)

type Decimal struct {
	decimal2.Decimal
}

func (dec *Decimal) Equal(o *Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) == 0
}

func (dec *Decimal) String() string {
	return dec.Decimal.String()
}

func (dec *Decimal) Less(o *Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) < 0
}

func (dec *Decimal) Greater(o *Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) > 0
}

func ParseDecimal(s string) (Decimal, error) {
	d, err := decimal2.Parse(s)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Decimal: d}, nil
}

func DecimalFromInt64(v int64, scale int) (Decimal, error) {
	d, err := decimal2.New(v, scale)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Decimal: d}, nil
}
