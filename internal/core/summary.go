package core

// CategoryAmount represents bills aggregated by category.
type CategoryAmount struct {
	Category Category
	Count    int
	Amount   Money
}

// MethodAmount represents payments aggregated by payment method.
type MethodAmount struct {
	Method PaymentMethod
	Count  int
	Amount Money
}
