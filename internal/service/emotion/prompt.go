package emotion

const analysisPrompt = `Analyze this video as an interview. Focus on emotions and behaviors relevant to interview performance such as confidence, nervousness, engagement, attentiveness, enthusiasm, professionalism, thoughtfulness, etc. Evaluate both verbal and non-verbal cues including facial expressions, body language, eye contact, speaking pace, and voice tone.

You must output ONLY a raw JSON object with no additional text, markdown formatting, or code block syntax. The JSON structure should be:

{
  "timestamps": {
    "0:00-0:10": {"emotion1": count, "behavior1": count, ...},
    "0:10-0:20": {"emotion1": count, "behavior1": count, ...},
    ...
  },
  "interview_strengths": ["strength1", "strength2", ...],
  "areas_for_improvement": ["area1", "area2", ...],
  "overall_analysis": "A detailed paragraph analyzing the candidate's interview performance, emotional state, key moments, and professional impression"
}

For timestamps, analyze the emotions and behaviors at approximately 10-second intervals. Include interview-relevant emotions and behaviors with their frequency counts. Your response must contain nothing but valid JSON that can be directly parsed.`
