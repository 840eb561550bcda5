package cli

// NewAppForTest exposes the root command for testing purposes
var NewAppForTest = newApp
