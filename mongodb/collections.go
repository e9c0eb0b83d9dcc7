package mongodb

const (
	UsersCollection         = "users"          // Identity mirror of the upstream provider
	DeviceLinksCollection   = "device_links"   // Pairing codes for the TV linking flow
	RefreshTokensCollection = "refresh_tokens" // Refresh-token fingerprints for rotation/revocation
)
