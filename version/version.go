package version

// Version is the current cflsms release.
const Version = "0.1.0"
