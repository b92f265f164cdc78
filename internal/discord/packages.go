package discord

// Package describes one of the fixed event packages offered on the website.
// Used purely for presentation when summarizing a selection; the webhook
// accepts any package name.
type Package struct {
	Name     string
	Price    string
	Hosts    string
	Duration string
	Features []string
}

var Packages = []Package{
	{
		Name:     "Euphoria VIP Package",
		Price:    "₹2399",
		Hosts:    "Rashika & Sher",
		Duration: "Approx 3 Hours",
		Features: []string{"Games", "Invite Links", "Event Management", "Poster & Description", "YouTube Live", "Giveaway", "Artist Payment Included"},
	},
	{
		Name:     "Groove Session Package",
		Price:    "₹1799",
		Hosts:    "Rashika",
		Duration: "Approx 2.5 Hours",
		Features: []string{"Games", "Invite Links", "Event Management", "Poster & Description", "Artist Payment Included"},
	},
	{
		Name:     "Jam Pass Package",
		Price:    "₹1499",
		Hosts:    "Rashika",
		Duration: "1.5–2 Hours",
		Features: []string{"Games", "Invite Links", "Artist Payment Included"},
	},
	{
		Name:     "Pocket Friendly Package",
		Price:    "₹1199",
		Hosts:    "Rashika",
		Duration: "Approx 1.5 Hours",
		Features: []string{"Games", "Invite Links", "Artist Payment Included"},
	},
	{
		Name:     "Interactive Gaming Pass",
		Price:    "₹1000 (Excl. Rewards)",
		Hosts:    "N/A",
		Duration: "Varies",
		Features: []string{"Mini Games", "Rapid Fire", "Guess Number", "Treasure Hunt", "Bingo", "Lottery", "Custom RAW STUDIO Bot"},
	},
	{
		Name:     "Custom Package",
		Price:    "Custom Quote",
		Hosts:    "As Requested",
		Duration: "As Requested",
		Features: []string{"Fully Customizable", "Your Requirements", "Flexible Options"},
	},
}

// FindPackage returns the catalog entry matching name, or nil.
func FindPackage(name string) *Package {
	for i := range Packages {
		if Packages[i].Name == name {
			return &Packages[i]
		}
	}
	return nil
}
