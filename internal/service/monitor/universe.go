package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

// Stablecoins and wrapped assets are pointless to scan: their volume
// spikes carry no entry signal.
var excludedBases = map[string]struct{}{
	"USDT": {}, "USDC": {}, "BUSD": {}, "TUSD": {}, "USDD": {}, "USDP": {},
	"FDUSD": {}, "DAI": {}, "FRAX": {}, "LUSD": {}, "PYUSD": {}, "GUSD": {},
	"SUSD": {}, "USDB": {}, "USDX": {}, "EURC": {}, "WBTC": {}, "WETH": {},
	"WBNB": {}, "STETH": {}, "WSTETH": {}, "CBETH": {}, "RETH": {}, "BETH": {},
	"BTCB": {}, "HBTC": {},
}

// builtinUniverse seeds the monitor before the first successful
// listing refresh and backstops a total exchange outage on boot.
var builtinUniverse = []string{
	"BTC", "ETH", "BNB", "XRP", "SOL", "ADA", "DOGE", "TRX", "DOT", "LTC",
	"SHIB", "AVAX", "LINK", "ATOM", "UNI", "XLM", "BCH", "ALGO", "ICP", "HBAR",
	"APT", "ARB", "NEAR", "GRT", "AAVE", "INJ", "OP", "SUI", "SEI", "TIA",
	"RUNE", "PENDLE", "JUP", "WIF", "BONK", "FLOKI", "PEPE", "TON", "KAS", "TAO",
	"IMX", "RNDR", "FIL", "THETA", "EGLD", "MINA", "SAND", "MANA", "AXS", "CHZ",
	"ENJ", "GALA", "GMT", "GMX", "DYDX", "LDO", "CRV", "COMP", "SNX", "STX",
	"BLUR", "KAVA", "ROSE", "ANKR", "ZIL", "ETC", "VET", "1INCH", "CAKE", "FTM",
	"MAGIC", "PYTH", "JTO", "STRK", "METIS", "API3", "MASK", "ALICE", "GLMR", "KSM",
	"ZRX", "BAT", "OMG", "BNT", "STORJ", "KNC", "WAVES", "QTUM", "ICX", "LSK",
	"JASMY", "HIGH", "LQTY", "RPL", "SSV", "RDNT", "GNS", "HOOK", "ACE", "XAI",
	"MANTA", "ALT", "PIXEL", "PORTAL", "ZETA", "DYM", "TNSR", "REZ", "BB", "NOT",
	"IO", "ZK", "WLD", "ETHFI", "EIGEN", "HMSTR", "CATI", "NEIRO", "SCR", "DOGS",
	"PNUT", "ACT", "GOAT", "MOODENG", "TURBO", "BRETT", "ENA", "SAGA", "BOME", "MEW",
	"MKR", "YFI", "SUSHI", "BAL", "UMA", "CVX", "PERP", "JOE",
}

// Universe is the set of base symbols the scanner sweeps. Refreshes
// replace the whole set; a refresh that yields nothing leaves the
// previous set untouched.
type Universe struct {
	mu      sync.RWMutex
	symbols []string

	listings []exchange.SymbolService
}

// NewUniverse starts from the built-in list and refreshes from the
// given listing services in priority order.
func NewUniverse(listings []exchange.SymbolService) *Universe {
	return &Universe{
		symbols:  lo.Uniq(builtinUniverse),
		listings: listings,
	}
}

// Symbols returns a copy of the current membership.
func (u *Universe) Symbols() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, len(u.symbols))
	copy(out, u.symbols)
	return out
}

func (u *Universe) Size() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.symbols)
}

// Refresh queries each listing service until one returns a non-empty
// symbol set, then replaces the universe with the deduplicated,
// exclusion-filtered base symbols. When every service fails the
// universe keeps its previous value.
func (u *Universe) Refresh(ctx context.Context) {
	for _, svc := range u.listings {
		symbols, err := svc.GetAllSymbols(ctx)
		if err != nil {
			slog.Warn("universe refresh failed, trying next listing", "listing", svc.Name(), "error", err)
			continue
		}

		bases := lo.FilterMap(symbols, func(s exchange.Symbol, _ int) (string, bool) {
			_, excluded := excludedBases[s.Base]
			return s.Base, !excluded && s.Base != ""
		})
		bases = lo.Uniq(bases)
		if len(bases) == 0 {
			continue
		}

		u.mu.Lock()
		u.symbols = bases
		u.mu.Unlock()
		slog.Info("universe refreshed", "listing", svc.Name(), "symbols", len(bases))
		return
	}
	slog.Warn("all listings failed, keeping previous universe", "symbols", u.Size())
}
