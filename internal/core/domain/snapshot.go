package domain

// Snapshot is the read-only application state handed to the availability
// checker and the financial aggregator. Neither mutates it.
type Snapshot struct {
	Bookings []Booking
	Invoices []Invoice
	Payments []Payment
}
