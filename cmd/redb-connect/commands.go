package main

func setupCommands() {
	// Catalog inspection
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(healthCmd)

	// Record operations
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(findOneCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)

	// Keyring
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(setSecretCmd)
	secretsCmd.AddCommand(deleteSecretCmd)
}
