package config

import "defenceblocker/pkg/model"

// DefaultCatalog returns the built-in list of protected brands
func DefaultCatalog() []model.TargetDomain {
	return []model.TargetDomain{
		{Label: "myetherwallet", TLD: "com", FuzzDepth: 2},
		{Label: "kraken", TLD: "com", FuzzDepth: 1},
		{Label: "mycrypto", TLD: "com", FuzzDepth: 1},
		{Label: "shapeshift", TLD: "com", FuzzDepth: 1, Aliases: []string{"shapeshift.io"}},
		{Label: "poloniex", TLD: "com", FuzzDepth: 1},
		{Label: "bitfinex", TLD: "com", FuzzDepth: 1},
		{Label: "blockchain", TLD: "com", FuzzDepth: 1, Aliases: []string{"blockchain.info"}},
		{Label: "coindesk", TLD: "com", FuzzDepth: 1, Aliases: []string{"coindash.io"}},
		{Label: "coindash", TLD: "io", FuzzDepth: 1, Aliases: []string{"coindesk.com"}},
		{Label: "cobinhood", TLD: "com", FuzzDepth: 1},
		{Label: "coinbase", TLD: "com", FuzzDepth: 1},
		{Label: "bitstamp", TLD: "net", FuzzDepth: 1},
		{Label: "bittrex", TLD: "com", FuzzDepth: 0},
		{Label: "bitmex", TLD: "com", FuzzDepth: 0},
		{Label: "etherdelta", TLD: "com", FuzzDepth: 1},
		{Label: "hitbtc", TLD: "com", FuzzDepth: 0},
		{Label: "electrum", TLD: "org", FuzzDepth: 1},
		{Label: "airswap", TLD: "io", FuzzDepth: 0},
		{Label: "ethfinex", TLD: "com", FuzzDepth: 1},
	}
}
