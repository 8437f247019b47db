// Package casecards is an in-process Go client for case card retrieval:
// it embeds a case study's fact cards once, then reveals the cards that best
// answer a learner's free-text question.
//
//	client, _ := casecards.New(ctx,
//	    casecards.WithOpenAI("https://api.deepseek.com/v1", apiKey, "deepseek-embedding-2"),
//	    casecards.WithThreshold(0.4),
//	)
//	defer client.Close()
//
//	cards, _ := casecards.LoadCards("data/case_cards.json")
//	_ = client.BuildIndex(ctx, cards)
//
//	first, _ := client.InitialCard("1")
//	ans, _ := client.Ask(ctx, "1", "Does the patient have a fever?", []string{first.ID})
//	for _, m := range ans.Matches {
//	    fmt.Println(m.Card.Title, m.Score)
//	}
package casecards
