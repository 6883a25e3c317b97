// Package addresses holds well-known mainnet contract addresses used by the
// score strategies and default configuration.
package addresses

import "bribecast/internal/types"

var (
	WETH = types.MustAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")

	// Curve / Convex.
	CRV             = types.MustAddress("0xd533a949740bb3306d119cc777fa900ba034cd52")
	CVX             = types.MustAddress("0x4e3fbd56cd56c3e72c1403e103b45db9da5b9d2b")
	CvxLocked       = types.MustAddress("0xd18140b4b819b895a3dba5442f959fa44994af50")
	CvxLockedV2     = types.MustAddress("0x72a19342e8f1838460ebfccef09f6585e32db86e")
	CvxStaked       = types.MustAddress("0xcf50b810e57ac33b91dcf525c6ddd9881b139332")
	CvxCRV          = types.MustAddress("0x62b9c7356a2dc64a1969e19c23e4f579f9810aa7")
	CvxVoterProxy   = types.MustAddress("0x989aeb4d175e16225e39e87d0d97a3360524ad80")
	CrvVotingEscrow = types.MustAddress("0x5f3b5dfeb7b28cdbd7faba78963ee202a494e2a2")
	GaugeController = types.MustAddress("0x2f50d538606fa9edd2b11e2446beb18c9d5846bb")

	// Balancer / Aura.
	BAL             = types.MustAddress("0xba100000625a3754423978a60c9317c58a424e3d")
	AuraBAL         = types.MustAddress("0x616e8bfa43f920657b3497dbf40d6b1a02d4608d")
	AURA            = types.MustAddress("0xc0c293ce456ff0ed870add98a0828dd4d2903dbf")
	AuraLocked      = types.MustAddress("0x3fa73f1e5d8a792c80f426fc8f84fbf7ce9bbcac")
	AuraVoterProxy  = types.MustAddress("0xaf52695e1bb01a16d33d7194c28c42b10e0dbec2")
	BalVotingEscrow = types.MustAddress("0xc128a9954e6c874ea3d62ce62b468ba073093f25")

	// HiddenHand bribe vault for Aura.
	AuraBribeVault = types.MustAddress("0x9ddb2da7dd76612e0df237b89af2cf4413733212")
)
