package translate

import "fmt"

// listSeparator joins names in a list prompt and splits the reply.
const listSeparator = ", "

func listPrompt(languageName, names string) string {
	return fmt.Sprintf("Translate the following list of names from English to %s, keeping the order: %s. "+
		"Reply only with the translated names, separated by a comma and a space.", languageName, names)
}

func documentPrompt(languageName, document string) string {
	return fmt.Sprintf("Translate the descriptive text values in the following D&D JSON object to %s. "+
		"Keep the JSON structure and keys in English. Only translate string values that are descriptive text "+
		"(like alignment, size, type, and the 'name' and 'desc' fields within arrays like special_abilities, "+
		"actions, etc.). Do not translate values that are identifiers like 'V', 'S', 'M', or numeric stats. "+
		"Return only the translated JSON object, nothing else. Object to translate: %s", languageName, document)
}
