package core

// OSSRepos is the curated candidate list scanned by the funding agent.
var OSSRepos = []string{
	"bitcoin/bitcoin",
	"monadlabs/monad-node",
	"someuser/someproject",
}

// FundingRegistry maps a repository to the testnet address that receives its
// funding. Repos without an entry are skipped even when they look
// crypto-friendly.
var FundingRegistry = map[string]string{
	"bitcoin/bitcoin":      "0x7890000000000000000000000000000000000001",
	"monadlabs/monad-node": "0x4567000000000000000000000000000000000002",
	"someuser/someproject": "0x1234000000000000000000000000000000000003",
}

var templates = map[string]AgentSpec{
	"open-source-crypto-funder": {
		ID:          "open-source-crypto-funder",
		Name:        "Open Source Crypto Funder",
		Description: "Scans curated GitHub repos for crypto-friendly projects and auto-funds them on Monad testnet.",
		Pricing:     Pricing{Enabled: false, Token: "USDC", Amount: 0},
		Tools: []string{
			"github.fetchReadme",
			"github.fetchFundingFile",
			"github.detectCryptoFunding",
			"wallet.fundProjects",
		},
		Logic: Logic{Steps: []Step{
			{Type: "github.fetchAndAnalyzeAll"},
			{Type: "wallet.fundProjects"},
		}},
	},
	"flight-search-agent": {
		ID:          "flight-search-agent",
		Name:        "Flight Search Assistant",
		Description: "Finds the best flight deals using Amadeus API.",
		Pricing:     Pricing{Enabled: false, Token: "USDC", Amount: 0},
		Tools:       []string{"amadeus.searchFlights"},
		Logic: Logic{Steps: []Step{
			{Type: "amadeus.searchFlights", Input: map[string]any{
				"origin":        "SFO",
				"destination":   "JFK",
				"departureDate": "2025-12-25",
			}},
		}},
	},
	"github-support-agent": {
		ID:          "github-support-agent",
		Name:        "GitHub Support Finder",
		Description: "Finds GitHub issues with 'support' or 'help wanted' labels for developers.",
		Pricing:     Pricing{Enabled: false, Token: "USDC", Amount: 0},
		Tools:       []string{"github.searchIssues"},
		Logic: Logic{Steps: []Step{
			{Type: "github.searchIssues", Input: map[string]any{
				"query": `label:support label:"help wanted" state:open`,
			}},
		}},
	},
	"game-item-store": {
		ID:          "game-item-store",
		Name:        "Game Item Store Agent",
		Description: "Sells virtual Sword and Shield items using MON via 402-paywalled API on Monad testnet.",
		// Pricing is per item; the amount here is a placeholder.
		Pricing: Pricing{Enabled: true, Token: "MON", Amount: 0},
		Tools: []string{
			"store.listItems",
			"store.getItemById",
			"store.recordPurchase",
		},
		Logic: Logic{Steps: []Step{
			{Type: "store.handleAction", Input: map[string]any{}},
		}},
	},
	"auto-item-buyer": {
		ID:          "auto-item-buyer",
		Name:        "Auto Item Buyer Agent",
		Description: "Automatically purchases items from the game store using MON via x402 payments. Handles the full payment flow automatically.",
		Pricing:     Pricing{Enabled: false, Token: "MON", Amount: 0},
		Tools: []string{
			"store.listItems",
			"store.getItemById",
			"store.purchaseItem",
		},
		Logic: Logic{Steps: []Step{
			// itemId and buyerAddress come from the run input.
			{Type: "store.purchaseItem", Input: map[string]any{}},
		}},
	},
}

// Template returns the built-in agent template for the given id, if any.
// The returned spec has no wallet; the caller generates one before saving.
func Template(id string) (AgentSpec, bool) {
	tpl, ok := templates[id]
	return tpl, ok
}

// StoreItems is the game store catalog. The bundle price carries a 10%
// discount over buying both items separately.
var StoreItems = []StoreItem{
	{
		ID:          "sword",
		Name:        "Sword of Monad",
		Description: "A sharp virtual blade forged in Monad blockspace.",
		Price:       0.0001,
		Token:       "MON",
		Image:       "/images/game-items/sword.png",
	},
	{
		ID:          "shield",
		Name:        "Shield of Gasless",
		Description: "A sturdy shield crafted to defend against high gas foes.",
		Price:       0.0001,
		Token:       "MON",
		Image:       "/images/game-items/shield.png",
	},
	{
		ID:          "bundle",
		Name:        "Sword & Shield Bundle",
		Description: "Get both the Sword of Monad and Shield of Gasless together! 10% discount when purchased as a bundle.",
		Price:       0.00018,
		Token:       "MON",
		IsBundle:    true,
		BundleItems: []string{"sword", "shield"},
	},
}

// GetStoreItem looks an item up by id.
func GetStoreItem(id string) (StoreItem, bool) {
	for _, item := range StoreItems {
		if item.ID == id {
			return item, true
		}
	}
	return StoreItem{}, false
}

// BundlePrice returns the discounted price of the sword and shield bundle.
func BundlePrice() float64 {
	var sum float64
	for _, id := range []string{"sword", "shield"} {
		if item, ok := GetStoreItem(id); ok {
			sum += item.Price
		} else {
			sum += 0.0001
		}
	}
	return sum * 0.9
}
