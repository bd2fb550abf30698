package pipeline

const paraphrasePrompt = "Rewrite the provided sentence to express the same idea in slightly different words while preserving " +
	"full accuracy, completeness, and meaning. Ensure the content remains faithful to the original and includes " +
	"all key details. Do not add any note.\n\n" +
	"Original:\n%s\n\n" +
	"Paraphrased version:"

const rankPrompt = "Output the indexes of terms in square brackets [ ] from the text between triple backticks ``` " +
	"by terms that shape what the text is about, how it answers the question the text is answering, who it " +
	"involves, consequences, hard numbers, dates, and facts. Downrank marked terms that are vague references, " +
	"general connectors, dependent on other terms in square brackets, or are unrelated to the question. You are " +
	"given a free space to decide your ranking strategy between the tags <thinking></thinking>\n" +
	"\n" +
	"Example:\n" +
	"\n" +
	"Question: What is the relationship between social media use and mental health in teenagers?```\n" +
	"Recent studies have shown [a correlation:0] between [social media use:1] and [increased anxiety:2] among " +
	"[teenagers:3]. Although some researchers argue that online interaction can promote [social connection:4], " +
	"others warn about [its impact:5] on [self-esteem:6] and [sleep patterns:7]. Debates intensified after a " +
	"[whistleblower:8] revealed internal data from [a major tech company:9] indicating [awareness:10] of " +
	"[these risks:11].\n" +
	"```\n" +
	"<thinking>\n" +
	"The question asks about the relationship between social media and mental health in teenagers.The most " +
	"central concept is [social media use:1], as it's the main cause under investigation. [teenagers:3] is the " +
	"primary affected group, making it essential. [a major tech company:9] is important because it provided key " +
	"internal data, which adds weight to the argument.\n" +
	"[increased anxiety:2] is one of the main documented effects, so it's ranked high. [whistleblower:8] is less " +
	"central but still critical since they enabled the release of impactful information.\n" +
	"[self-esteem:6] and [sleep patterns:7] are concrete, measurable consequences of social media use, so they " +
	"deserve mid-level ranking. [social connection:4] is a counterpoint and thus relevant but slightly less " +
	"important.\n" +
	"[awareness:10] and [a correlation:0] are abstract and support other terms but are not impactful alone. " +
	"[these risks:11] and [its impact:5] are vague or dependent on previous terms, so they are ranked lowest.\n" +
	"</thinking>\n" +
	"OUTPUT: [1, 3, 9, 2, 8, 6, 7, 4, 10, 0, 11, 5]"

const rankPromptTail = "\n\nNow it's your turn.\n\nQuestion: %s\n```\n%s\n```\n"

const noisePrompt = "You create subtly wrong versions of a reference answer for a factual-accuracy benchmark.\n" +
	"\n" +
	"The text between triple backticks uses two markers:\n" +
	"- [term] marks a span you must corrupt. Replace it with a plausible but factually wrong alternative of the " +
	"same kind: a different date, number, name, place, cause or consequence. The change must make the statement " +
	"false while keeping it fluent and believable.\n" +
	"- {{term}} marks a span you must keep. Reproduce it character for character, braces included.\n" +
	"\n" +
	"Rules:\n" +
	"- Change only the [term] spans. Leave all other words, punctuation and sentence structure as they are.\n" +
	"- Do not keep square brackets around the spans you replaced.\n" +
	"- Do not add explanations, hedges or notes to the text.\n" +
	"- If there is no [term] span, return the text unchanged.\n" +
	"\n" +
	"First reason briefly between <thinking></thinking> tags, then give the rewritten text between " +
	"<output></output> tags.\n" +
	"\n" +
	"Example:\n" +
	"```\n" +
	"The Apollo 11 mission landed on the Moon in [1969] and {{Neil Armstrong}} was the first person to walk on " +
	"[its surface].\n" +
	"```\n" +
	"<thinking>I must change 1969 and its surface, keeping Neil Armstrong. 1971 is a believable wrong year and " +
	"the lunar orbit changes the claim.</thinking>\n" +
	"<output>The Apollo 11 mission landed on the Moon in 1971 and {{Neil Armstrong}} was the first person to walk " +
	"on the lunar orbit.</output>"
