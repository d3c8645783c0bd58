package auth

import (
	"fmt"
	"strings"
)

// ShowTokenGuide explains where the four OAuth secrets come from
func ShowTokenGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("TWITTER API CREDENTIALS")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
	fmt.Println("tweetsweep signs its requests with your own developer app.")
	fmt.Println()
	fmt.Println("STEP 1: Create an app")
	fmt.Println("   - Go to https://developer.twitter.com/en/portal/dashboard")
	fmt.Println("   - Create a project and an app inside it")
	fmt.Println("   - Under 'User authentication settings' give the app Read and Write access")
	fmt.Println()
	fmt.Println("STEP 2: Copy the keys")
	fmt.Println("   - 'Keys and tokens' -> Consumer Keys: API Key and API Key Secret")
	fmt.Println("   - 'Keys and tokens' -> Access Token and Secret: generate, then copy both")
	fmt.Println("   - Regenerate the access token after changing permissions")
	fmt.Println()
	fmt.Println("STEP 3: Give them to tweetsweep, any one of:")
	fmt.Println("   - tweetsweep auth login")
	fmt.Println("   - TWEETSWEEP_CONSUMER_KEY, TWEETSWEEP_CONSUMER_SECRET,")
	fmt.Println("     TWEETSWEEP_ACCESS_TOKEN_KEY, TWEETSWEEP_ACCESS_TOKEN_SECRET")
	fmt.Println("   - a credentials.txt file:")
	fmt.Println()
	fmt.Println("       [" + INISection + "]")
	for _, key := range iniKeys {
		fmt.Printf("       %s = ...\n", key)
	}
	fmt.Println()
	fmt.Println("WARNING: these secrets can delete every tweet on the account. Never share them.")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}
