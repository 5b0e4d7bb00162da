package topic

// Topic is a canned explanation the chat widget can fall back to when no
// language model is reachable. Triggers are matched as lower-case substrings.
type Topic struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Triggers []string `json:"triggers"`
	Reply    string   `json:"-"`
}

// GenericHelp is returned when no topic trigger matches.
const GenericHelp = `Hi! I'm the QuantQuest tutor. I can walk you through quantitative finance concepts while you level up your skill tree.

Try asking me about:
- Alpha and beta, and how they measure performance and market exposure
- Value at Risk (VaR) and other risk metrics
- Black-Scholes and options pricing
- Python programming for quantitative analysis

What would you like to learn today?`

// Seed returns the built-in topics in match priority order.
func Seed() []Topic {
	return []Topic{
		{
			ID:       "alpha-beta",
			Title:    "Alpha & Beta",
			Triggers: []string{"alpha", "beta"},
			Reply: `Alpha and beta are the two workhorse numbers of performance analysis.

**Beta** measures how sensitive an asset is to the market. It is the slope of the asset's returns regressed on the market's returns: beta = Cov(r_asset, r_market) / Var(r_market). A beta of 1.2 means the asset tends to move 1.2% for every 1% move in the market.

**Alpha** is the return left over after accounting for that market exposure. Under CAPM: alpha = r_asset - [r_f + beta * (r_market - r_f)]. Positive alpha suggests the strategy added value beyond simply taking market risk.

Tip: estimate both on excess returns over the risk-free rate, and check whether alpha stays significant out of sample.`,
		},
		{
			ID:       "value-at-risk",
			Title:    "Value at Risk",
			Triggers: []string{"var", "value at risk"},
			Reply: `Value at Risk (VaR) answers: "How much could I lose over a given horizon, at a given confidence level, under normal market conditions?"

A 1-day 95% VaR of $1M means that on 95% of days the loss should not exceed $1M.

Three common ways to compute it:
1. **Historical simulation**: take the empirical loss distribution from past returns and read off the percentile.
2. **Parametric (variance-covariance)**: assume normal returns, VaR = z_alpha * sigma * portfolio value.
3. **Monte Carlo**: simulate many return paths and take the percentile of simulated losses.

VaR says nothing about how bad losses are beyond the threshold, which is why Expected Shortfall (CVaR) is often reported alongside it.`,
		},
		{
			ID:       "black-scholes",
			Title:    "Black-Scholes & Options",
			Triggers: []string{"black-scholes", "options"},
			Reply: `The Black-Scholes model prices European options assuming the underlying follows geometric Brownian motion with constant volatility and interest rates.

Call price: C = S * N(d1) - K * e^(-rT) * N(d2)
where d1 = [ln(S/K) + (r + sigma^2/2) * T] / (sigma * sqrt(T)) and d2 = d1 - sigma * sqrt(T).

Key inputs: spot S, strike K, time to expiry T, risk-free rate r and volatility sigma. Volatility is the only input you cannot observe directly, which is why traders quote options in implied volatility.

The Greeks (delta, gamma, vega, theta, rho) are the partial derivatives of the price and tell you how to hedge.`,
		},
		{
			ID:       "python",
			Title:    "Python for Quants",
			Triggers: []string{"python", "programming"},
			Reply: `Python is the lingua franca of quantitative research.

A practical starter stack:
- **numpy** for vectorised numerics
- **pandas** for time series and return calculations
- **scipy** and **statsmodels** for statistics and regressions
- **matplotlib** for charts

Example, daily log returns and annualised volatility:

    import numpy as np
    import pandas as pd
    returns = np.log(prices / prices.shift(1)).dropna()
    vol = returns.std() * np.sqrt(252)

Start by reproducing a simple moving-average backtest, then add transaction costs and out-of-sample testing.`,
		},
	}
}
