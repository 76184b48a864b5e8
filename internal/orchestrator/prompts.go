package orchestrator

// NotRelatedVerdict is the verbatim gate answer that stops skill execution.
const NotRelatedVerdict = "Not related."

// NotRelatedMessage is returned to the user when the relevance gate rejects
// the selected skill.
const NotRelatedMessage = "The selected skill does not appear to be related to your question. Please pick a different skill or rephrase."

// relevanceTemplate asks the model whether the selected skill is topically
// applicable to the user's question before the skill is run.
const relevanceTemplate = `You are a routing assistant. A user selected the skill "{{skill}}" ({{description}}) and asked:

{{question}}

If the question is topically related to this skill, reply with exactly: Related.
If it is not, reply with exactly: ` + NotRelatedVerdict

// fallbackTemplate answers generic turns when no explicit skill was
// selected. The model may only talk about the available skills or redirect
// the user to pick one.
const fallbackTemplate = `You are a policy assistant. The following skills are available:

{{skills}}

Conversation so far:
{{history}}

User question: {{question}}

Answer only with information about the available skills, or redirect the user to pick one of them. Do not answer questions outside this scope.`
