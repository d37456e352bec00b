package currencies

import "github.com/sig-0/bocfx/storage/types"

var (
	USD types.Currency = "USD"
	CNY types.Currency = "CNY"
)
