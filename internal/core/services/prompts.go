package services

// Fixed system prompts for the auxiliary text model. The target audience
// is German-medium educational content, so the prompts are German; both
// instruct terse, single-purpose output that is parsed verbatim.
const (
	// condensePrompt turns recent chat history into one standalone
	// search query.
	condensePrompt = `Du bist ein Suchassistent. Formuliere aus dem bisherigen Gesprächsverlauf eine einzelne, eigenständige Suchanfrage, die die aktuelle Frage des Nutzers vollständig wiedergibt. Gib NUR die Suchanfrage zurück, ohne Anführungszeichen und ohne Erläuterung.`

	// keywordsPrompt extracts up to five domain keywords from the most
	// recent user message.
	keywordsPrompt = `Du bist ein Suchassistent. Extrahiere aus der Nachricht des Nutzers bis zu fünf fachliche Schlagwörter für eine Stichwortsuche. Gib NUR die Schlagwörter zurück, ein Schlagwort pro Zeile, ohne Nummerierung und ohne Erläuterung.`
)
